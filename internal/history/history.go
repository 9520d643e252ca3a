// Package history persists benchmark results across runs, organised by
// branch, so a new run can be compared with earlier ones.
package history

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/settle/bench"
)

// Benchmark is the set of results of one run on one commit.
type Benchmark struct {
	CommitSha string          `json:"commitSha"`
	DirName   string          `json:"dirName,omitempty"`
	RunID     string          `json:"runId,omitempty"`
	Results   []*bench.Result `json:"results"`
}

// Result returns the result for id, or nil.
func (b *Benchmark) Result(id string) *bench.Result {
	for _, r := range b.Results {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// History holds every persisted benchmark, oldest first within a branch.
type History struct {
	Benchmarks map[string][]Benchmark `json:"benchmarks"`
}

// New returns an empty history.
func New() *History {
	return &History{Benchmarks: make(map[string][]Benchmark)}
}

// AppendAndPrune adds b to branch, replacing any earlier benchmark of the
// same commit, then trims every branch to its newest perBranch entries.
// perBranch <= 0 keeps everything.
//
// Returns true when an entry for the same commit was replaced.
func AppendAndPrune(h *History, b Benchmark, branch string, perBranch int) (replaced bool) {
	if h.Benchmarks == nil {
		h.Benchmarks = make(map[string][]Benchmark)
	}

	entries := h.Benchmarks[branch]
	kept := slices.DeleteFunc(slices.Clone(entries), func(e Benchmark) bool {
		return e.CommitSha == b.CommitSha
	})
	replaced = len(kept) != len(entries)
	h.Benchmarks[branch] = append(kept, b)

	if perBranch > 0 {
		for name, list := range h.Benchmarks {
			if extra := len(list) - perBranch; extra > 0 {
				h.Benchmarks[name] = slices.Clone(list[extra:])
			}
		}
	}
	return replaced
}

// PersistOptions decides which branches get their results persisted.
type PersistOptions struct {
	// Persist forces the decision when set.
	Persist *bool

	// Branches lists the branches to persist. Empty means only DefaultBranch.
	Branches []string

	DefaultBranch string
}

// ShouldPersist reports whether results of branch should be written.
func ShouldPersist(opts PersistOptions, branch string) bool {
	if opts.Persist != nil {
		return *opts.Persist
	}
	if len(opts.Branches) > 0 {
		return slices.Contains(opts.Branches, branch)
	}
	return branch == opts.DefaultBranch
}

// BranchBenchmarks extracts the benchmarks of one branch from an encoded
// history document without decoding the other branches.
func BranchBenchmarks(doc []byte, branch string) ([]Benchmark, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("history document is not valid JSON")
	}

	res := gjson.GetBytes(doc, "benchmarks."+gjson.Escape(branch))
	if !res.Exists() {
		return nil, nil
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("branch %q: expected an array, got %s", branch, res.Type)
	}

	var out []Benchmark
	if err := json.Unmarshal([]byte(res.Raw), &out); err != nil {
		return nil, fmt.Errorf("branch %q: %w", branch, err)
	}
	return out, nil
}

// CommitShas lists the commits recorded for branch, oldest first, reading
// only the commitSha fields of the document.
func CommitShas(doc []byte, branch string) []string {
	res := gjson.GetBytes(doc, "benchmarks."+gjson.Escape(branch)+".#.commitSha")
	var out []string
	for _, v := range res.Array() {
		out = append(out, v.String())
	}
	return out
}

// FindCommit returns the most recent benchmark recorded for sha, or nil.
// The preferred branch is searched first, then the others in name order.
func (h *History) FindCommit(sha, preferred string) *Benchmark {
	branches := slices.Sorted(maps.Keys(h.Benchmarks))
	if i := slices.Index(branches, preferred); i > 0 {
		branches = slices.Insert(slices.Delete(branches, i, i+1), 0, preferred)
	}

	for _, branch := range branches {
		list := h.Benchmarks[branch]
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].CommitSha == sha {
				b := list[i]
				return &b
			}
		}
	}
	return nil
}
