// Package record implements named-field data records over value.Value:
// fixed, ordered schemas with required/optional fields, validated and
// JSON-Schema-subset reflectable.
package record

import (
	"fmt"

	"github.com/flowmesh/engine/value"
)

// Field declares one named slot of a record type.
type Field struct {
	Name     string
	Variant  value.Variant
	Required bool
}

// Type is a named, fixed-schema mapping from field names to (variant,
// required) pairs. It implements value.Variant so Data<R> values can
// participate in the same caster/equality machinery as any other value.
type Type struct {
	Name         string
	Fields       []Field
	AllowExtra   bool // used only by node params records, per the source's Params base class
	fieldByName  map[string]Field
}

// NewType builds a record type, indexing its fields by name. Field order
// is preserved for schema emission but is not semantically significant
// otherwise.
func NewType(name string, fields []Field) *Type {
	t := &Type{Name: name, Fields: fields, fieldByName: make(map[string]Field, len(fields))}
	for _, f := range fields {
		t.fieldByName[f.Name] = f
	}
	return t
}

func (t *Type) Origin() value.Origin  { return value.OriginData }
func (t *Type) Args() []value.Variant { return nil }
func (t *Type) Key() string           { return "Data<" + t.Name + ">" }

// Field looks up a declared field by name.
func (t *Type) Field(name string) (Field, bool) {
	f, ok := t.fieldByName[name]
	return f, ok
}

// Record is a validated value of a Type: every required field is present
// and every present field's value carries that field's variant exactly
// (casts, if any, were already applied during construction).
type Record struct {
	Type   *Type
	Fields map[string]value.Value
}

// Get returns the value bound to a field name.
func (r Record) Get(name string) (value.Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Validate checks payload against t: unknown keys are rejected (unless
// AllowExtra), required fields must be present, and every present value
// must already carry (or be trivially identical to) the declared variant.
// Casting a mismatched variant into place is the caller's job (the
// executor casts eagerly from edges before calling Validate) — Validate
// itself never casts, it only checks.
func (t *Type) Validate(payload map[string]value.Value) (Record, error) {
	if err := t.validateSchema(payload); err != nil {
		return Record{}, err
	}

	if !t.AllowExtra {
		for key := range payload {
			if _, ok := t.fieldByName[key]; !ok {
				return Record{}, fmt.Errorf("record %s: unexpected field %q", t.Name, key)
			}
		}
	}

	fields := make(map[string]value.Value, len(t.Fields))
	for _, f := range t.Fields {
		v, present := payload[f.Name]
		if !present {
			if f.Required {
				return Record{}, fmt.Errorf("record %s: missing required field %q", t.Name, f.Name)
			}
			continue
		}
		if !value.SameVariant(v.Variant(), f.Variant) {
			return Record{}, fmt.Errorf("record %s: field %q has variant %s, expected %s", t.Name, f.Name, v.Variant().Key(), f.Variant.Key())
		}
		fields[f.Name] = v
	}
	if t.AllowExtra {
		for k, v := range payload {
			if _, declared := t.fieldByName[k]; !declared {
				fields[k] = v
			}
		}
	}

	return Record{Type: t, Fields: fields}, nil
}

func init() {
	value.RegisterJSONEncoder(value.OriginData, func(v value.Value) (any, error) {
		rec, ok := v.Payload().(Record)
		if !ok {
			return nil, fmt.Errorf("record: value payload is not a Record")
		}
		out := make(map[string]any, len(rec.Fields))
		for k, fv := range rec.Fields {
			doc, err := value.ToJSON(fv)
			if err != nil {
				return nil, err
			}
			out[k] = doc
		}
		return out, nil
	})
}
