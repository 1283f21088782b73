package value

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Caster converts one concrete Value to another, possibly suspending for
// I/O through ctx.
type Caster func(ctx Context, v Value) (Value, error)

// GenericCaster is given the concrete source and target variants (which
// may carry generic arguments, e.g. Sequence<Integer>) and either returns
// a concrete Caster between them, or declines by returning ok=false. This
// indirection is what lets container casters (Sequence->Sequence,
// StringMap->StringMap) check element-type compatibility before
// committing to a caster.
type GenericCaster func(source, target Variant) (caster Caster, ok bool)

// registry is the process-wide, origin-keyed table of generic casters.
// It is populated at init() time by this package and by value.Register
// calls in the vfile package, then frozen per-origin the
// first time a cast from that origin is resolved.
type registry struct {
	mu      sync.Mutex
	casters map[Origin]map[Origin]GenericCaster
	frozen  map[Origin]bool
}

var globalRegistry = &registry{
	casters: make(map[Origin]map[Origin]GenericCaster),
	frozen:  make(map[Origin]bool),
}

// Register adds a generic caster from sourceOrigin to targetOrigin. It
// panics if a caster for that (source, target) origin pair is already
// registered, or if sourceOrigin's caster table has already been frozen
// by use — both are configuration errors caught at process init time,
// never at runtime.
func Register(sourceOrigin, targetOrigin Origin, gc GenericCaster) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.frozen[sourceOrigin] {
		panic(fmt.Sprintf("value: cannot register caster from %s after it has been used to cast values", sourceOrigin))
	}
	byTarget, ok := globalRegistry.casters[sourceOrigin]
	if !ok {
		byTarget = make(map[Origin]GenericCaster)
		globalRegistry.casters[sourceOrigin] = byTarget
	}
	if _, exists := byTarget[targetOrigin]; exists {
		panic(fmt.Sprintf("value: caster from %s to %s already registered", sourceOrigin, targetOrigin))
	}
	byTarget[targetOrigin] = gc
}

func identity(_ Context, v Value) (Value, error) { return v, nil }

// resolve finds a concrete Caster from source to target, freezing
// source's Origin caster table as a side effect (first use locks it).
func (r *registry) resolve(source, target Variant) (Caster, bool) {
	r.mu.Lock()
	r.frozen[source.Origin()] = true
	gc, hasGeneric := r.casters[source.Origin()][target.Origin()]
	r.mu.Unlock()

	if hasGeneric {
		if caster, ok := gc(source, target); ok {
			return caster, true
		}
	}

	if SameVariant(source, target) {
		return identity, true
	}

	r.mu.Lock()
	wildcard, hasWildcard := r.casters[OriginAny][target.Origin()]
	r.mu.Unlock()
	if hasWildcard {
		if caster, ok := wildcard(source, target); ok {
			return caster, true
		}
	}

	return nil, false
}

// OriginAny is a wildcard source origin for casters that apply regardless
// of the value's concrete variant, such as "stringify anything" or
// "serialize anything to JSON". It mirrors registering a caster on the
// common Value base class in a class-hierarchy model.
const OriginAny Origin = "*"

func init() {
	Register(OriginInteger, OriginFloat, func(source, target Variant) (Caster, bool) {
		return func(_ Context, v Value) (Value, error) {
			i, _ := v.Int()
			return FloatValue(float64(i)), nil
		}, true
	})

	Register(OriginFloat, OriginInteger, func(source, target Variant) (Caster, bool) {
		return func(_ Context, v Value) (Value, error) {
			f, _ := v.Float()
			i := int64(f)
			if float64(i) != f {
				return Value{}, fmt.Errorf("%v does not represent an exact integer", f)
			}
			return IntegerValue(i), nil
		}, true
	})

	// String->Integer/Float go through a strict JSON-number parse (via
	// FromJSON), not fmt.Sscanf: Sscanf succeeds on trailing garbage
	// ("123abc" -> 123, err==nil) and silently truncates non-integral
	// strings cast to Integer ("3.5" -> 3, err==nil), both of which
	// violate the "failed casts raise an error, never silently truncate"
	// invariant.
	Register(OriginString, OriginInteger, func(source, target Variant) (Caster, bool) {
		return func(_ Context, v Value) (Value, error) {
			s, _ := v.String()
			var doc any
			if err := json.Unmarshal([]byte(s), &doc); err != nil {
				return Value{}, fmt.Errorf("cannot parse %q as integer: %w", s, err)
			}
			result, err := FromJSON(doc, Integer)
			if err != nil {
				return Value{}, fmt.Errorf("cannot parse %q as integer: %w", s, err)
			}
			return result, nil
		}, true
	})

	Register(OriginString, OriginFloat, func(source, target Variant) (Caster, bool) {
		return func(_ Context, v Value) (Value, error) {
			s, _ := v.String()
			var doc any
			if err := json.Unmarshal([]byte(s), &doc); err != nil {
				return Value{}, fmt.Errorf("cannot parse %q as float: %w", s, err)
			}
			result, err := FromJSON(doc, Float)
			if err != nil {
				return Value{}, fmt.Errorf("cannot parse %q as float: %w", s, err)
			}
			return result, nil
		}, true
	})

	Register(OriginString, OriginBoolean, func(source, target Variant) (Caster, bool) {
		return func(_ Context, v Value) (Value, error) {
			s, _ := v.String()
			switch s {
			case "true":
				return BooleanValue(true), nil
			case "false":
				return BooleanValue(false), nil
			default:
				return Value{}, fmt.Errorf("cannot parse %q as boolean", s)
			}
		}, true
	})

	// Sequence<S> -> Sequence<T> whenever S can cast to T. The caster
	// casts the elements one after another; the only concurrency is the
	// engine's fan-out across a node's input fields.
	Register(OriginSequence, OriginSequence, func(source, target Variant) (Caster, bool) {
		srcSeq, ok := source.(Sequence)
		if !ok {
			return nil, false
		}
		dstSeq, ok := target.(Sequence)
		if !ok {
			return nil, false
		}
		if !CanCastVariant(srcSeq.Elem, dstSeq.Elem) {
			return nil, false
		}
		return func(ctx Context, v Value) (Value, error) {
			items, _ := v.Items()
			out := make([]Value, len(items))
			for i, item := range items {
				casted, err := item.CastTo(ctx, dstSeq.Elem)
				if err != nil {
					return Value{}, fmt.Errorf("element %d: %w", i, err)
				}
				out[i] = casted
			}
			return SequenceValue(dstSeq.Elem, out), nil
		}, true
	})

	Register(OriginStringMap, OriginStringMap, func(source, target Variant) (Caster, bool) {
		srcMap, ok := source.(StringMap)
		if !ok {
			return nil, false
		}
		dstMap, ok := target.(StringMap)
		if !ok {
			return nil, false
		}
		if !CanCastVariant(srcMap.Elem, dstMap.Elem) {
			return nil, false
		}
		return func(ctx Context, v Value) (Value, error) {
			items, _ := v.Map()
			out := make(map[string]Value, len(items))
			for k, item := range items {
				casted, err := item.CastTo(ctx, dstMap.Elem)
				if err != nil {
					return Value{}, fmt.Errorf("key %q: %w", k, err)
				}
				out[k] = casted
			}
			return StringMapValue(dstMap.Elem, out), nil
		}, true
	})

	// Universal stringify: any value can be cast to String by rendering
	// its JSON form, matching the reference implementation's
	// model_dump_json fallback caster registered on the Value base class.
	Register(OriginAny, OriginString, func(source, target Variant) (Caster, bool) {
		if source.Origin() == OriginString {
			return nil, false
		}
		return func(_ Context, v Value) (Value, error) {
			doc, err := ToJSON(v)
			if err != nil {
				return Value{}, err
			}
			encoded, err := json.Marshal(doc)
			if err != nil {
				return Value{}, err
			}
			return StringValue(string(encoded)), nil
		}, true
	})
}
