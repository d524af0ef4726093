// Package validation validates worker input payloads against the JSON
// schemas published in the activity registry.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Result holds the outcome of a schema validation.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validate checks data against schemaMap (a JSON-schema document expressed
// as a Go map) and returns per-field error messages.
func Validate(data map[string]interface{}, schemaMap map[string]interface{}) (*Result, error) {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return &Result{Valid: true}, nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}

	return &Result{Valid: false, Errors: msgs}, nil
}

// CompileSchema checks that a schema document itself is well formed. An
// empty map is treated as "no schema" and passes.
func CompileSchema(schemaMap map[string]interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}
	sl := gojsonschema.NewSchemaLoader()
	if _, err := sl.Compile(gojsonschema.NewGoLoader(schemaMap)); err != nil {
		return fmt.Errorf("schema compile: %w", err)
	}
	return nil
}

// Describe flattens validation errors into one message for error details.
func (r *Result) Describe() string {
	return strings.Join(r.Errors, "; ")
}
