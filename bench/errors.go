package bench

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateID is wrapped by the ConfigError returned when two benchmarks
// share an id within one run.
var ErrDuplicateID = errors.New("duplicate benchmark id")

// ValidationError represents a single invalid option.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// Merge appends every error of other, prefixing its fields.
func (e *ValidationErrors) Merge(prefix string, other *ValidationErrors) {
	if other == nil {
		return
	}
	for _, err := range other.Errors {
		field := err.Field
		if prefix != "" {
			field = prefix + "." + field
		}
		e.Add(field, err.Message)
	}
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ConfigError is returned before any timing starts when a benchmark cannot
// run as configured.
type ConfigError struct {
	ID  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("benchmark %q: invalid configuration: %v", e.ID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NoProgressError is returned when the hard caps were hit before a single
// measured run completed.
type NoProgressError struct {
	ID          string
	MaxDuration time.Duration
	WarmupRuns  int
}

func (e *NoProgressError) Error() string {
	if e.WarmupRuns > 0 {
		return fmt.Sprintf("benchmark %q: no run was completed before maxDuration %s, but did %d warm-up runs; "+
			"consider lowering maxWarmupDuration or maxWarmupRuns, or extending maxDuration if the function is very slow",
			e.ID, formatDuration(e.MaxDuration), e.WarmupRuns)
	}
	return fmt.Sprintf("benchmark %q: no run was completed before maxDuration %s; "+
		"consider extending maxDuration if Before, BeforeEach or Fn are too slow",
		e.ID, formatDuration(e.MaxDuration))
}

// HardTimeoutError is returned when a run exceeds its hard timeout. The
// benchmark goroutine stops at its next iteration boundary and its samples
// are discarded.
type HardTimeoutError struct {
	ID      string
	Timeout time.Duration
}

func (e *HardTimeoutError) Error() string {
	return fmt.Sprintf("benchmark %q: exceeded hard timeout of %s", e.ID, e.Timeout)
}
