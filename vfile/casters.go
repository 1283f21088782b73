package vfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/flowmesh/engine/value"
)

func asFile(v value.Value) (File, error) {
	f, ok := v.Payload().(File)
	if !ok {
		return File{}, fmt.Errorf("vfile: value payload is not a File")
	}
	return f, nil
}

func init() {
	// File -> String: the Text kind is read as text and the JSON kind is
	// read and decoded as a JSON string; other kinds decline so the
	// universal stringify (JSON-of-reference) caster applies instead.
	value.Register(value.OriginFile, value.OriginString, func(source, target value.Variant) (value.Caster, bool) {
		kind, ok := source.(*Kind)
		if ok && kind == JSONKind {
			return func(ctx value.Context, v value.Value) (value.Value, error) {
				return readJSONFileAs(ctx, v, value.String)
			}, true
		}
		if !ok || kind != TextKind {
			return nil, false
		}
		return func(ctx value.Context, v value.Value) (value.Value, error) {
			f, err := asFile(v)
			if err != nil {
				return value.Value{}, err
			}
			content, err := f.Read(ctx)
			if err != nil {
				return value.Value{}, err
			}
			return value.StringValue(string(content)), nil
		}, true
	})

	// File -> any of the primitive/container variants: only the JSON kind
	// supports read-then-dispatch. String is handled separately above
	// since the Text kind also claims a File->String caster.
	for _, target := range []value.Variant{value.Null, value.Boolean, value.Integer, value.Float} {
		target := target
		value.Register(value.OriginFile, target.Origin(), func(source, target value.Variant) (value.Caster, bool) {
			kind, ok := source.(*Kind)
			if !ok || kind != JSONKind {
				return nil, false
			}
			return func(ctx value.Context, v value.Value) (value.Value, error) {
				return readJSONFileAs(ctx, v, target)
			}, true
		})
	}

	value.Register(value.OriginFile, value.OriginSequence, func(source, target value.Variant) (value.Caster, bool) {
		kind, ok := source.(*Kind)
		if !ok {
			return nil, false
		}
		switch kind {
		case JSONKind:
			return func(ctx value.Context, v value.Value) (value.Value, error) {
				return readJSONFileAs(ctx, v, target)
			}, true
		case JSONLinesKind:
			return func(ctx value.Context, v value.Value) (value.Value, error) {
				return readJSONLinesAs(ctx, v, target.(value.Sequence))
			}, true
		default:
			return nil, false
		}
	})

	value.Register(value.OriginFile, value.OriginStringMap, func(source, target value.Variant) (value.Caster, bool) {
		kind, ok := source.(*Kind)
		if !ok || kind != JSONKind {
			return nil, false
		}
		return func(ctx value.Context, v value.Value) (value.Value, error) {
			return readJSONFileAs(ctx, v, target)
		}, true
	})

	// Any value -> JSON file: serialize, write, return a fresh reference.
	value.Register(value.OriginAny, value.OriginFile, func(source, target value.Variant) (value.Caster, bool) {
		kind, ok := target.(*Kind)
		if !ok || kind != JSONKind {
			return nil, false
		}
		return func(ctx value.Context, v value.Value) (value.Value, error) {
			doc, err := value.ToJSON(v)
			if err != nil {
				return value.Value{}, err
			}
			encoded, err := json.Marshal(doc)
			if err != nil {
				return value.Value{}, err
			}
			f, err := Write(ctx, JSONKind, encoded)
			if err != nil {
				return value.Value{}, err
			}
			return value.New(JSONKind, f), nil
		}, true
	})
}

func readJSONFileAs(ctx value.Context, v value.Value, target value.Variant) (value.Value, error) {
	f, err := asFile(v)
	if err != nil {
		return value.Value{}, err
	}
	content, err := f.Read(ctx)
	if err != nil {
		return value.Value{}, err
	}
	return decodeJSONAs(content, target)
}

func readJSONLinesAs(ctx value.Context, v value.Value, target value.Sequence) (value.Value, error) {
	f, err := asFile(v)
	if err != nil {
		return value.Value{}, err
	}
	content, err := f.Read(ctx)
	if err != nil {
		return value.Value{}, err
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	var items []value.Value
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		elem, err := decodeJSONAs(line, target.Elem)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, elem)
	}
	if err := scanner.Err(); err != nil {
		return value.Value{}, err
	}
	return value.SequenceValue(target.Elem, items), nil
}

// decodeJSONAs parses raw JSON bytes and dispatches to the requested
// target variant, the Go analogue of the reference implementation's
// JSONFile read-then-dispatch cast.
func decodeJSONAs(raw []byte, target value.Variant) (value.Value, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return value.Value{}, fmt.Errorf("vfile: invalid JSON: %w", err)
	}
	v, err := value.FromJSON(doc, target)
	if err != nil {
		return value.Value{}, fmt.Errorf("vfile: %w", err)
	}
	return v, nil
}
