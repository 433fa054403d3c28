package desired

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://netzarbeiter.de/schemas/plugin-management.schema.json"

//go:embed schema/plugin-management.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load bundled schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile bundled schema: %w", err)
	}
	return schema, nil
})

// Schema returns the bundled JSON Schema for plugin lists.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// validate checks a JSON document against the bundled schema.
func validate(path string, doc []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return &ParseError{Path: path, Err: err}
	}

	err = schema.Validate(v)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("failed to validate plugin list: %w", err)
	}

	return &SchemaError{Path: path, Violations: violations(ve)}
}

// violations flattens a validation error tree into its leaf causes.
func violations(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{Location: ve.InstanceLocation, Message: ve.Message}}
	}
	var out []Violation
	for _, cause := range ve.Causes {
		out = append(out, violations(cause)...)
	}
	return out
}
