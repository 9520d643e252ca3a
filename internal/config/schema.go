package config

import (
	_ "embed"
	"fmt"

	"github.com/wesleyorama2/settle/pkg/jsonschema"
)

//go:embed schema.json
var schemaSource string

var fileSchema = jsonschema.MustCompile("settle-config.json", schemaSource)

// CheckSchemaJSON validates a JSON configuration document against the
// embedded schema.
func CheckSchemaJSON(data []byte) error {
	if err := fileSchema.ValidateJSON(data); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

// CheckSchemaValue validates a decoded YAML document against the embedded
// schema.
func CheckSchemaValue(doc interface{}) error {
	if err := fileSchema.ValidateValue(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
