package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("history: not found")

// Provider reads and writes persisted benchmarks.
type Provider interface {
	// ReadHistory returns the full history, or an empty one when nothing has
	// been written yet.
	ReadHistory(ctx context.Context) (*History, error)
	WriteHistory(ctx context.Context, h *History) error

	// ReadBranch returns the benchmarks of one branch, oldest first.
	ReadBranch(ctx context.Context, branch string) ([]Benchmark, error)

	// ReadLatestInBranch returns ErrNotFound when branch has no benchmark.
	ReadLatestInBranch(ctx context.Context, branch string) (*Benchmark, error)
	WriteLatestInBranch(ctx context.Context, branch string, b *Benchmark) error

	// String describes the location, for logs.
	String() string
}

const (
	historyObject = "history.json"
	latestDir     = "latest"
)

// blobStore is the minimal storage a provider needs.
type blobStore interface {
	// read returns ErrNotFound for a missing key.
	read(ctx context.Context, key string) ([]byte, error)
	write(ctx context.Context, key string, data []byte) error
	describe() string
}

// provider implements Provider on top of any blobStore. Every document is
// checked against the embedded schemas in both directions.
type provider struct {
	store blobStore
}

func (p *provider) String() string { return p.store.describe() }

func (p *provider) ReadHistory(ctx context.Context) (*History, error) {
	data, err := p.store.read(ctx, historyObject)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history from %s: %w", p, err)
	}

	if err := historySchema.ValidateJSON(data); err != nil {
		return nil, fmt.Errorf("history at %s is malformed: %w", p, err)
	}

	h := New()
	if err := json.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("failed to decode history from %s: %w", p, err)
	}
	if h.Benchmarks == nil {
		h.Benchmarks = make(map[string][]Benchmark)
	}
	return h, nil
}

func (p *provider) WriteHistory(ctx context.Context, h *History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := historySchema.ValidateJSON(data); err != nil {
		return fmt.Errorf("refusing to write malformed history: %w", err)
	}
	if err := p.store.write(ctx, historyObject, data); err != nil {
		return fmt.Errorf("failed to write history to %s: %w", p, err)
	}
	return nil
}

func (p *provider) ReadBranch(ctx context.Context, branch string) ([]Benchmark, error) {
	data, err := p.store.read(ctx, historyObject)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history from %s: %w", p, err)
	}
	return BranchBenchmarks(data, branch)
}

func (p *provider) ReadLatestInBranch(ctx context.Context, branch string) (*Benchmark, error) {
	data, err := p.store.read(ctx, latestKey(branch))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("no benchmark for branch %q: %w", branch, err)
		}
		return nil, fmt.Errorf("failed to read latest benchmark of %q from %s: %w", branch, p, err)
	}

	if err := benchmarkSchema.ValidateJSON(data); err != nil {
		return nil, fmt.Errorf("latest benchmark of %q is malformed: %w", branch, err)
	}

	var b Benchmark
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode latest benchmark of %q: %w", branch, err)
	}
	return &b, nil
}

func (p *provider) WriteLatestInBranch(ctx context.Context, branch string, b *Benchmark) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode benchmark: %w", err)
	}
	if err := benchmarkSchema.ValidateJSON(data); err != nil {
		return fmt.Errorf("refusing to write malformed benchmark: %w", err)
	}
	if err := p.store.write(ctx, latestKey(branch), data); err != nil {
		return fmt.Errorf("failed to write latest benchmark of %q to %s: %w", branch, p, err)
	}
	return nil
}

// latestKey maps a branch to its object key. Branch names may contain
// slashes, so they are escaped into a single path segment.
func latestKey(branch string) string {
	return path.Join(latestDir, url.PathEscape(branch)+".json")
}

// Save appends b to the history of branch, pruning old entries, and records
// it as the latest benchmark of that branch.
func Save(ctx context.Context, p Provider, b Benchmark, branch string, perBranch int) (replaced bool, err error) {
	h, err := p.ReadHistory(ctx)
	if err != nil {
		return false, err
	}

	replaced = AppendAndPrune(h, b, branch, perBranch)
	if err := p.WriteHistory(ctx, h); err != nil {
		return replaced, err
	}
	if err := p.WriteLatestInBranch(ctx, branch, &b); err != nil {
		return replaced, err
	}
	return replaced, nil
}

// ReadBenchmarkFile reads a benchmark from a JSON file, such as the output
// of `settle run --format json`. A missing commit sha defaults to the file
// name without extension.
func ReadBenchmarkFile(name string) (*Benchmark, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s is empty", name)
	}
	if sha, _ := doc["commitSha"].(string); sha == "" {
		doc["commitSha"] = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if err := benchmarkSchema.ValidateValue(doc); err != nil {
		return nil, fmt.Errorf("%s is not a valid benchmark: %w", name, err)
	}

	var b Benchmark
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	b.CommitSha = doc["commitSha"].(string)
	return &b, nil
}
