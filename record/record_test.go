package record

import (
	"testing"

	"github.com/flowmesh/engine/value"
)

func TestValidateAcceptsWellFormedPayload(t *testing.T) {
	typ := NewType("Point", []Field{
		{Name: "x", Variant: value.Integer, Required: true},
		{Name: "y", Variant: value.Integer, Required: true},
	})
	rec, err := typ.Validate(map[string]value.Value{
		"x": value.IntegerValue(1),
		"y": value.IntegerValue(2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x, _ := rec.Get("x")
	if i, _ := x.Int(); i != 1 {
		t.Fatalf("expected 1, got %v", i)
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	typ := NewType("Point", []Field{
		{Name: "x", Variant: value.Integer, Required: true},
	})
	if _, err := typ.Validate(map[string]value.Value{}); err == nil {
		t.Fatal("expected an error for a missing required field")
	}
}

func TestValidateRejectsUnexpectedField(t *testing.T) {
	typ := NewType("Point", []Field{
		{Name: "x", Variant: value.Integer, Required: true},
	})
	_, err := typ.Validate(map[string]value.Value{
		"x": value.IntegerValue(1),
		"y": value.IntegerValue(2),
	})
	if err == nil {
		t.Fatal("expected an error for an unexpected field")
	}
}

// TestValidateRunsSchemaValidation confirms Type.Validate actually goes
// through the gojsonschema pass (Type.validateSchema / ValidateJSON), not
// just the hand-rolled checks, by passing a valid Sequence<Integer>
// payload: success proves the gojsonschema call is reachable and does not
// itself error out on a well-formed record.
func TestValidateRunsSchemaValidation(t *testing.T) {
	typ := NewType("Listing", []Field{
		{Name: "items", Variant: value.Sequence{Elem: value.Integer}, Required: true},
	})
	rec, err := typ.Validate(map[string]value.Value{
		"items": value.SequenceValue(value.Integer, []value.Value{value.IntegerValue(1), value.IntegerValue(2)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _ := rec.Get("items")
	got, _ := items.Items()
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
}

// TestValidateAllowsNamedVariantFieldsWithNoJSONSchemaBody confirms a
// field whose variant is named but not a record.Type (vfile.Kind, in
// production) does not break gojsonschema's $ref resolution: collectDefs
// must supply an open "{}" schema for it rather than leaving the $ref
// dangling.
func TestValidateAllowsNamedVariantFieldsWithNoJSONSchemaBody(t *testing.T) {
	typ := NewType("Holder", []Field{
		{Name: "thing", Variant: namedLeaf{}, Required: true},
	})
	if _, err := typ.Validate(map[string]value.Value{
		"thing": value.New(namedLeaf{}, "opaque-payload"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// namedLeaf is a minimal value.Variant with no primitive Origin, standing
// in for vfile.Kind without importing it (would cycle back through
// value's JSON encoder registration in a test-only way).
type namedLeaf struct{}

func (namedLeaf) Origin() value.Origin  { return "TestLeaf" }
func (namedLeaf) Args() []value.Variant { return nil }
func (namedLeaf) Key() string           { return "TestLeaf" }

func init() {
	value.RegisterJSONEncoder("TestLeaf", func(v value.Value) (any, error) {
		return v.Payload(), nil
	})
}

func TestValidateRejectsCastMismatchAfterSchemaPasses(t *testing.T) {
	typ := NewType("Point", []Field{
		{Name: "x", Variant: value.Integer, Required: true},
	})
	// A Float value renders as a JSON number indistinguishable from an
	// integer-looking payload in some cases, but SameVariant still must
	// reject it: schema validation checking shape is not a substitute for
	// the exact-variant check.
	if _, err := typ.Validate(map[string]value.Value{"x": value.FloatValue(1.0)}); err == nil {
		t.Fatal("expected an error: field declared Integer, given Float")
	}
}
