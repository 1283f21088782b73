package value

import (
	"fmt"
	"reflect"
	"sync"
)

// Context is the narrow slice of the execution context that casters may
// need: file I/O. It is defined here, rather than imported from a context
// package, so that value has no dependency on the engine or the node
// registry — casters are handed whatever satisfies this interface.
type Context interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte) (string, error)
}

// Value is an immutable wrapper around a payload of a specific variant.
// Two Values are equal iff their variants and payloads are equal; the
// cast cache is bookkeeping and is ignored by Equal.
type Value struct {
	variant Variant
	payload any
	cache   *sync.Map // target Variant.Key() -> Value, shared across copies
}

// New constructs a Value of the given variant wrapping payload. Callers
// are responsible for ensuring payload matches the variant's expected Go
// representation (bool, int64, float64, string, []Value, map[string]Value,
// or a variant-specific type for Data/File).
func New(variant Variant, payload any) Value {
	return Value{variant: variant, payload: payload, cache: &sync.Map{}}
}

func NullValue() Value           { return New(Null, nil) }
func BooleanValue(b bool) Value  { return New(Boolean, b) }
func IntegerValue(i int64) Value { return New(Integer, i) }
func FloatValue(f float64) Value { return New(Float, f) }
func StringValue(s string) Value { return New(String, s) }

func SequenceValue(elem Variant, items []Value) Value {
	return New(Sequence{Elem: elem}, items)
}

func StringMapValue(elem Variant, items map[string]Value) Value {
	return New(StringMap{Elem: elem}, items)
}

func (v Value) Variant() Variant { return v.variant }
func (v Value) Payload() any     { return v.payload }

func (v Value) Bool() (bool, bool)       { b, ok := v.payload.(bool); return b, ok }
func (v Value) Int() (int64, bool)       { i, ok := v.payload.(int64); return i, ok }
func (v Value) Float() (float64, bool)   { f, ok := v.payload.(float64); return f, ok }
func (v Value) String() (string, bool)   { s, ok := v.payload.(string); return s, ok }
func (v Value) Items() ([]Value, bool)   { s, ok := v.payload.([]Value); return s, ok }
func (v Value) Map() (map[string]Value, bool) {
	m, ok := v.payload.(map[string]Value)
	return m, ok
}

// Equal compares two Values by variant and payload, ignoring the cast
// cache. Sequence and StringMap payloads compare element-wise.
func (v Value) Equal(other Value) bool {
	if !SameVariant(v.variant, other.variant) {
		return false
	}
	switch a := v.payload.(type) {
	case []Value:
		b, ok := other.payload.([]Value)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case map[string]Value:
		b, ok := other.payload.(map[string]Value)
		if !ok || len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, ok := b[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(v.payload, other.payload)
	}
}

// CastTo resolves a concrete caster from v's variant to target, invokes
// it (possibly performing I/O through ctx), and memoizes the result on v
// keyed by target's full recursive key, so a second CastTo(target) on the
// same Value instance performs no new work.
func (v Value) CastTo(ctx Context, target Variant) (Value, error) {
	key := target.Key()
	if cached, ok := v.cache.Load(key); ok {
		return cached.(Value), nil
	}

	caster, ok := globalRegistry.resolve(v.variant, target)
	if !ok {
		return Value{}, fmt.Errorf("cannot convert %s to %s", v.variant.Key(), target.Key())
	}

	casted, err := caster(ctx, v)
	if err != nil {
		return Value{}, fmt.Errorf("cast from %s to %s failed: %w", v.variant.Key(), target.Key(), err)
	}
	v.cache.Store(key, casted)
	return casted, nil
}

// CanCastTo reports whether there is any hope of casting v's variant to
// target, without performing the cast.
func (v Value) CanCastTo(target Variant) bool {
	_, ok := globalRegistry.resolve(v.variant, target)
	return ok
}

// CanCastVariant reports whether values of variant source can be cast to
// target, for use where no concrete Value is in hand yet (e.g. edge type
// checking).
func CanCastVariant(source, target Variant) bool {
	_, ok := globalRegistry.resolve(source, target)
	return ok
}
