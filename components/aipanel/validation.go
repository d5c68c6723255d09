package aipanel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema names understood by the validator.
const (
	SchemaInsights    = "insights"
	SchemaPredictions = "predictions"
)

var payloadSchemas = map[string]string{
	SchemaInsights: `{
		"type": "object",
		"required": ["insights"],
		"properties": {
			"insights": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["title", "description"],
					"properties": {
						"icon": {"type": "string"},
						"title": {"type": "string"},
						"description": {"type": "string"}
					}
				}
			}
		}
	}`,
	SchemaPredictions: `{
		"type": "object",
		"required": ["predictions"],
		"properties": {
			"predictions": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["period", "predicted_leads"],
					"properties": {
						"period": {"type": "string"},
						"predicted_leads": {"type": "number"},
						"predicted_efectivos": {"type": "number"},
						"confidence": {"type": "number", "minimum": 0, "maximum": 1}
					}
				}
			}
		}
	}`,
}

// PayloadValidator checks AI documents before they are decoded.
type PayloadValidator interface {
	Validate(schema string, raw []byte) error
}

// JSONSchemaValidator compiles the payload schemas lazily and validates raw documents.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures raw satisfies the named schema.
func (v *JSONSchemaValidator) Validate(name string, raw []byte) error {
	schema, err := v.schemaFor(name)
	if err != nil {
		return err
	}
	var payload any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return fmt.Errorf("aipanel: decode %s payload: %w", name, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("aipanel: %s payload failed validation: %w", name, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(name string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	source, ok := payloadSchemas[name]
	if !ok {
		return nil, fmt.Errorf("aipanel: unknown schema %q", name)
	}
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("aipanel: load schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("aipanel: compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.compiled[name] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopValidator struct{}

func (noopValidator) Validate(string, []byte) error { return nil }
