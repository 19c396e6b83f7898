// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema builds typed task specifications from the flat key=value
// and field-list strings supplied on the command line.
package schema

import (
	"strings"

	"github.com/pdiddy/ptask/pkg/types"
)

// ParsePairs parses a comma-separated "key=value,key2=value2" string into
// input data. Tokens without "=" are silently dropped; keys and values are
// whitespace-trimmed; values may contain "=" (split on the first one only).
// The returned key slice preserves first-seen order for schema building.
func ParsePairs(s string) (map[string]string, []string) {
	data := make(map[string]string)
	var keys []string
	for _, pair := range strings.Split(s, ",") {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if _, seen := data[key]; !seen {
			keys = append(keys, key)
		}
		data[key] = strings.TrimSpace(val)
	}
	return data, keys
}

// Fields parses a comma-separated field list, trimming whitespace and
// silently skipping empty names. No field-name syntax is enforced.
func Fields(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// BuildEnrichment parses the --enrich and --output flag strings into input
// data and the enrichment task spec.
func BuildEnrichment(inputFields, outputFields string) (map[string]string, *types.TaskSpec) {
	data, keys := ParsePairs(inputFields)
	return data, Enrichment(keys, Fields(outputFields))
}

// Enrichment builds the task spec for an enrichment run: every input key and
// output field becomes a required string property, and both schemas reject
// properties the caller never declared.
func Enrichment(inputKeys, outputFields []string) *types.TaskSpec {
	inputProps := make(map[string]types.Property, len(inputKeys))
	for _, k := range inputKeys {
		inputProps[k] = types.Property{Type: "string"}
	}

	outputProps := make(map[string]types.Property, len(outputFields))
	for _, f := range outputFields {
		outputProps[f] = types.Property{
			Type:        "string",
			Description: "The " + strings.ReplaceAll(f, "_", " ") + " of the entity",
		}
	}

	return &types.TaskSpec{
		InputSchema:  objectSchema(inputProps, inputKeys),
		OutputSchema: objectSchema(outputProps, outputFields),
	}
}

// Text returns the free-text output spec used by report mode.
func Text() *types.TaskSpec {
	return &types.TaskSpec{
		OutputSchema: &types.SchemaSpec{Type: "text"},
	}
}

func objectSchema(props map[string]types.Property, required []string) *types.SchemaSpec {
	if required == nil {
		required = []string{}
	}
	return &types.SchemaSpec{
		Type: "json",
		JSONSchema: &types.JSONSchema{
			Type:                 "object",
			Properties:           props,
			Required:             required,
			AdditionalProperties: false,
		},
	}
}
