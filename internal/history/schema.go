package history

import (
	_ "embed"

	"github.com/wesleyorama2/settle/pkg/jsonschema"
)

//go:embed schema.json
var schemaSource string

var (
	historySchema   = jsonschema.MustCompile("settle-history.json", schemaSource)
	benchmarkSchema = jsonschema.MustCompileAt("settle-history.json", schemaSource, "/$defs/benchmark")
)
