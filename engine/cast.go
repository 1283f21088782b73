package engine

import (
	"sync"

	"github.com/flowmesh/engine/record"
	"github.com/flowmesh/engine/value"
)

// castFieldsConcurrently casts every present field of raw to the variant
// declared by inType, in parallel, and returns the fully-cast field map.
// Extra (undeclared) fields pass through untouched — a non-AllowExtra
// Type rejects them at Validate, so no cast work is wasted on them here.
func castFieldsConcurrently(ctx value.Context, inType *record.Type, raw map[string]value.Value) (map[string]value.Value, error) {
	type result struct {
		name string
		v    value.Value
		err  error
	}

	results := make(chan result, len(raw))
	var wg sync.WaitGroup

	for name, v := range raw {
		name, v := name, v
		wg.Add(1)
		go func() {
			defer wg.Done()

			field, declared := inType.Field(name)
			if !declared || value.SameVariant(v.Variant(), field.Variant) {
				results <- result{name: name, v: v}
				return
			}

			casted, err := v.CastTo(ctx, field.Variant)
			if err != nil {
				results <- result{name: name, err: err}
				return
			}
			results <- result{name: name, v: casted}
		}()
	}

	wg.Wait()
	close(results)

	out := make(map[string]value.Value, len(raw))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out[r.name] = r.v
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
