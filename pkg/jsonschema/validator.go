// Package jsonschema validates settle documents against embedded JSON Schemas.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled schema document.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles source, registered under name for error messages.
func Compile(name, source string) (*Schema, error) {
	return CompileAt(name, source, "")
}

// CompileAt compiles the subschema of source found at the JSON pointer
// fragment, such as "/$defs/item". An empty fragment selects the root.
func CompileAt(name, source, fragment string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}

	url := name
	if fragment != "" {
		url = name + "#" + fragment
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", url, err)
	}
	return &Schema{name: url, schema: schema}, nil
}

// MustCompile is like Compile but panics on error. It is meant for schemas
// embedded in the binary.
func MustCompile(name, source string) *Schema {
	s, err := Compile(name, source)
	if err != nil {
		panic(err)
	}
	return s
}

// MustCompileAt is like CompileAt but panics on error.
func MustCompileAt(name, source, fragment string) *Schema {
	s, err := CompileAt(name, source, fragment)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string { return s.name }

// ValidateJSON validates a JSON document.
//
// Returns nil if valid, ValidationErrors listing every violation, or a
// plain error when data is not JSON.
func (s *Schema) ValidateJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return s.validate(doc)
}

// ValidateValue validates any value that encodes to JSON, such as a decoded
// YAML document.
func (s *Schema) ValidateValue(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("document is not representable as JSON: %w", err)
	}
	return s.ValidateJSON(data)
}

func (s *Schema) validate(doc interface{}) error {
	err := s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractValidationErrors(validationErr)
	}
	return ValidationErrors{err}
}

// extractValidationErrors flattens the leaves of a jsonschema.ValidationError
// tree. Inner nodes only repeat "doesn't validate with ..." wrappers.
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("validation error at %s: %s", location, err.Message)}
	}

	var errs ValidationErrors
	for _, childErr := range err.Causes {
		errs = append(errs, extractValidationErrors(childErr)...)
	}
	return errs
}
