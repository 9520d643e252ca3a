package suite

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CSVSink writes the raw samples of each benchmark to <Dir>/<id>.csv, one
// nanosecond value per line.
type CSVSink struct {
	Dir string
}

// WriteSamples implements bench.SampleSink.
func (s CSVSink) WriteSamples(id string, samples []int64) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create samples directory: %w", err)
	}

	f, err := os.Create(s.Path(id))
	if err != nil {
		return fmt.Errorf("failed to create samples file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, ns := range samples {
		if err := w.Write([]string{strconv.FormatInt(ns, 10)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return f.Close()
}

// Path returns the file the samples of id are written to.
func (s CSVSink) Path(id string) string {
	return filepath.Join(s.Dir, sanitize(id)+".csv")
}

// ReadSamples reads a file written by CSVSink. Only the first column of
// each record is used.
func ReadSamples(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	samples := make([]int64, 0, len(records))
	for i, rec := range records {
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		ns, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, err)
		}
		samples = append(samples, ns)
	}
	return samples, nil
}

// sanitize keeps ids with slashes or spaces usable as file names.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, id)
}
