package value

import "fmt"

// jsonEncoder converts a Value's payload (for one Origin) into a document
// made of plain Go types (bool, int64/float64, string, []any, map[string]any,
// nil) suitable for encoding/json. Data and File variants register their
// own encoder since value does not know their payload shape.
type jsonEncoder func(v Value) (any, error)

var jsonEncoders = map[Origin]jsonEncoder{}

// RegisterJSONEncoder lets an externally-defined variant (record.Type,
// vfile.Kind) teach the value package how to render its payload as JSON.
func RegisterJSONEncoder(origin Origin, enc jsonEncoder) {
	jsonEncoders[origin] = enc
}

// ToJSON renders v as a document of plain Go types, the representation
// used both by the universal stringify caster and by wire serialization
// of node outputs.
func ToJSON(v Value) (any, error) {
	switch v.variant.Origin() {
	case OriginNull:
		return nil, nil
	case OriginBoolean, OriginInteger, OriginFloat, OriginString:
		return v.payload, nil
	case OriginSequence:
		items, _ := v.Items()
		out := make([]any, len(items))
		for i, item := range items {
			doc, err := ToJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = doc
		}
		return out, nil
	case OriginStringMap:
		items, _ := v.Map()
		out := make(map[string]any, len(items))
		for k, item := range items {
			doc, err := ToJSON(item)
			if err != nil {
				return nil, err
			}
			out[k] = doc
		}
		return out, nil
	default:
		if enc, ok := jsonEncoders[v.variant.Origin()]; ok {
			return enc(v)
		}
		return nil, fmt.Errorf("no JSON encoder registered for variant origin %s", v.variant.Origin())
	}
}

// FromJSON decodes a plain-Go-types JSON document into a Value of the
// requested variant, dispatching recursively through Sequence/StringMap
// elements. It covers only the primitive/container variants value knows
// about natively; Data and File variants are never the target of a raw
// JSON decode (they are reached by a caster instead).
func FromJSON(doc any, target Variant) (Value, error) {
	switch target.Origin() {
	case OriginNull:
		if doc != nil {
			return Value{}, fmt.Errorf("expected null, got %T", doc)
		}
		return NullValue(), nil
	case OriginBoolean:
		b, ok := doc.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected boolean, got %T", doc)
		}
		return BooleanValue(b), nil
	case OriginInteger:
		f, ok := doc.(float64)
		if !ok || f != float64(int64(f)) {
			return Value{}, fmt.Errorf("expected integer, got %v", doc)
		}
		return IntegerValue(int64(f)), nil
	case OriginFloat:
		f, ok := doc.(float64)
		if !ok {
			return Value{}, fmt.Errorf("expected number, got %T", doc)
		}
		return FloatValue(f), nil
	case OriginString:
		s, ok := doc.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string, got %T", doc)
		}
		return StringValue(s), nil
	case OriginSequence:
		seq := target.(Sequence)
		arr, ok := doc.([]any)
		if !ok {
			return Value{}, fmt.Errorf("expected array, got %T", doc)
		}
		items := make([]Value, len(arr))
		for i, elem := range arr {
			v, err := FromJSON(elem, seq.Elem)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = v
		}
		return SequenceValue(seq.Elem, items), nil
	case OriginStringMap:
		sm := target.(StringMap)
		obj, ok := doc.(map[string]any)
		if !ok {
			return Value{}, fmt.Errorf("expected object, got %T", doc)
		}
		items := make(map[string]Value, len(obj))
		for k, elem := range obj {
			v, err := FromJSON(elem, sm.Elem)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			items[k] = v
		}
		return StringMapValue(sm.Elem, items), nil
	default:
		return Value{}, fmt.Errorf("cannot decode JSON into variant %s", target.Key())
	}
}
