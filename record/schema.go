package record

import (
	"fmt"

	"github.com/flowmesh/engine/value"
)

// NamedRegistry resolves $ref names to variant types during schema
// reconstruction — the Go analogue of the reference implementation's
// variant-type registry, used for record types and file kinds that have
// a name but are not primitives.
type NamedRegistry struct {
	variants map[string]value.Variant
}

func NewNamedRegistry() *NamedRegistry {
	return &NamedRegistry{variants: make(map[string]value.Variant)}
}

func (r *NamedRegistry) Register(name string, v value.Variant) {
	r.variants[name] = v
}

func (r *NamedRegistry) Resolve(name string) (value.Variant, bool) {
	v, ok := r.variants[name]
	return v, ok
}

// VariantToSchema renders a variant as a JSON-Schema-subset document.
// Primitives map to their obvious JSON-Schema type; Sequence/StringMap
// recurse; any other named variant (Data records, File kinds) is emitted
// as a $ref so the document stays finite even for recursive record
// graphs.
func VariantToSchema(v value.Variant) map[string]any {
	switch v.Origin() {
	case value.OriginNull:
		return map[string]any{"type": "null"}
	case value.OriginBoolean:
		return map[string]any{"type": "boolean"}
	case value.OriginInteger:
		return map[string]any{"type": "integer"}
	case value.OriginFloat:
		return map[string]any{"type": "number"}
	case value.OriginString:
		return map[string]any{"type": "string"}
	case value.OriginSequence:
		seq := v.(value.Sequence)
		return map[string]any{"type": "array", "items": VariantToSchema(seq.Elem)}
	case value.OriginStringMap:
		sm := v.(value.StringMap)
		return map[string]any{"type": "object", "additionalProperties": VariantToSchema(sm.Elem)}
	default:
		return map[string]any{"$ref": "#/$defs/" + v.Key()}
	}
}

// ToSchema renders t as a JSON-Schema-subset "object" document: declared
// fields become properties, required fields are listed, and
// additionalProperties is false unless the type explicitly allows extras
// (node params records do, per AllowExtra).
func (t *Type) ToSchema() map[string]any {
	properties := make(map[string]any, len(t.Fields))
	required := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		properties[f.Name] = VariantToSchema(f.Variant)
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": t.AllowExtra,
	}
}

// collectDefs walks v recursively, gathering a "$defs" entry for every
// named ($ref) variant VariantToSchema would emit. Nested record.Types get
// their real schema (so nested-record fields are actually checked);
// any other named variant (vfile.Kind, for instance) has no JSON-Schema
// description available in this package, so it gets the open schema `{}`,
// which gojsonschema accepts unconditionally — its payload is checked by
// Type.Validate's hand-rolled variant comparison instead.
func collectDefs(v value.Variant, defs map[string]any, seen map[string]bool) {
	switch v.Origin() {
	case value.OriginSequence:
		collectDefs(v.(value.Sequence).Elem, defs, seen)
	case value.OriginStringMap:
		collectDefs(v.(value.StringMap).Elem, defs, seen)
	case value.OriginNull, value.OriginBoolean, value.OriginInteger, value.OriginFloat, value.OriginString:
		// primitive: VariantToSchema never emits a $ref for these.
	default:
		key := v.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		if rt, ok := v.(*Type); ok {
			defs[key] = rt.ToSchema()
			for _, f := range rt.Fields {
				collectDefs(f.Variant, defs, seen)
			}
		} else {
			defs[key] = map[string]any{}
		}
	}
}

// VariantFromSchema reconstructs a variant from a JSON-Schema-subset
// document. Object schemas become *record.Type (returned as
// value.Variant); $ref names are resolved against reg.
func VariantFromSchema(schema map[string]any, reg *NamedRegistry) (value.Variant, error) {
	if ref, ok := schema["$ref"].(string); ok {
		name := trimRefPrefix(ref)
		v, ok := reg.Resolve(name)
		if !ok {
			return nil, fmt.Errorf("record: unresolved $ref %q", ref)
		}
		return v, nil
	}

	kind, _ := schema["type"].(string)
	switch kind {
	case "null":
		return value.Null, nil
	case "boolean":
		return value.Boolean, nil
	case "integer":
		return value.Integer, nil
	case "number":
		return value.Float, nil
	case "string":
		return value.String, nil
	case "array":
		items, _ := schema["items"].(map[string]any)
		elem, err := VariantFromSchema(items, reg)
		if err != nil {
			return nil, err
		}
		return value.Sequence{Elem: elem}, nil
	case "object":
		if additional, ok := schema["additionalProperties"].(map[string]any); ok {
			elem, err := VariantFromSchema(additional, reg)
			if err != nil {
				return nil, err
			}
			return value.StringMap{Elem: elem}, nil
		}
		return typeFromSchema("Anonymous", schema, reg)
	default:
		return nil, fmt.Errorf("record: unsupported schema type %q", kind)
	}
}

// FromSchema reconstructs a *Type from an "object" JSON-Schema-subset
// document, the inverse of Type.ToSchema.
func FromSchema(name string, schema map[string]any, reg *NamedRegistry) (*Type, error) {
	return typeFromSchema(name, schema, reg)
}

func typeFromSchema(name string, schema map[string]any, reg *NamedRegistry) (*Type, error) {
	properties, _ := schema["properties"].(map[string]any)
	requiredList, _ := schema["required"].([]string)
	requiredSet := make(map[string]bool, len(requiredList))
	for _, r := range requiredList {
		requiredSet[r] = true
	}
	allowExtra := true
	if additional, ok := schema["additionalProperties"].(bool); ok {
		allowExtra = additional
	}

	fields := make([]Field, 0, len(properties))
	for fieldName, raw := range properties {
		fieldSchema, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record: field %q has malformed schema", fieldName)
		}
		variant, err := VariantFromSchema(fieldSchema, reg)
		if err != nil {
			return nil, fmt.Errorf("record: field %q: %w", fieldName, err)
		}
		fields = append(fields, Field{Name: fieldName, Variant: variant, Required: requiredSet[fieldName]})
	}

	t := NewType(name, fields)
	t.AllowExtra = allowExtra
	return t, nil
}

func trimRefPrefix(ref string) string {
	const prefix = "#/$defs/"
	if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
		return ref[len(prefix):]
	}
	return ref
}
