package value

import "testing"

func TestCastIntegerToFloatIsLossless(t *testing.T) {
	v := IntegerValue(42)
	casted, err := v.CastTo(nil, Float)
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	f, ok := casted.Float()
	if !ok || f != 42.0 {
		t.Fatalf("expected 42.0, got %v", casted.Payload())
	}
}

func TestCastFloatToIntegerGuardsNonExact(t *testing.T) {
	v := FloatValue(3.5)
	if _, err := v.CastTo(nil, Integer); err == nil {
		t.Fatal("expected error casting non-integral float to Integer")
	}

	exact := FloatValue(4.0)
	casted, err := exact.CastTo(nil, Integer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, _ := casted.Int()
	if i != 4 {
		t.Fatalf("expected 4, got %v", i)
	}
}

func TestCastIdentity(t *testing.T) {
	v := StringValue("hello")
	casted, err := v.CastTo(nil, String)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !casted.Equal(v) {
		t.Fatal("identity cast must equal source value")
	}
}

func TestCastMemoization(t *testing.T) {
	calls := 0
	Register(OriginBoolean, OriginString, func(source, target Variant) (Caster, bool) {
		return func(_ Context, v Value) (Value, error) {
			calls++
			b, _ := v.Bool()
			if b {
				return StringValue("true"), nil
			}
			return StringValue("false"), nil
		}, true
	})

	v := BooleanValue(true)
	if _, err := v.CastTo(nil, String); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}
	if _, err := v.CastTo(nil, String); err != nil {
		t.Fatalf("second cast failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one underlying cast call, got %d", calls)
	}
}

func TestSequenceCastChecksElementCompatibility(t *testing.T) {
	seqOfInt := SequenceValue(Integer, []Value{IntegerValue(1), IntegerValue(2)})
	casted, err := seqOfInt.CastTo(nil, Sequence{Elem: Float})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _ := casted.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	f, _ := items[0].Float()
	if f != 1.0 {
		t.Fatalf("expected 1.0, got %v", f)
	}
}

func TestSequenceOfIntAndSequenceOfFloatCacheSeparately(t *testing.T) {
	v := IntegerValue(7)
	toFloat, _ := v.CastTo(nil, Float)
	if SameVariant(toFloat.Variant(), Integer) {
		t.Fatal("cast result must carry target variant, not source")
	}

	keyInt := Sequence{Elem: Integer}.Key()
	keyFloat := Sequence{Elem: Float}.Key()
	if keyInt == keyFloat {
		t.Fatal("Sequence<Integer> and Sequence<Float> must have distinct keys")
	}
}

func TestStringifyFallback(t *testing.T) {
	v := IntegerValue(9)
	casted, err := v.CastTo(nil, String)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := casted.String()
	if s != "9" {
		t.Fatalf("expected \"9\", got %q", s)
	}
}

func TestCannotCastIncompatibleVariants(t *testing.T) {
	v := SequenceValue(String, []Value{StringValue("a")})
	if _, err := v.CastTo(nil, Boolean); err == nil {
		t.Fatal("expected error casting Sequence<String> to Boolean")
	}
}

func TestCastStringToIntegerRejectsTrailingGarbage(t *testing.T) {
	v := StringValue("123abc")
	if _, err := v.CastTo(nil, Integer); err == nil {
		t.Fatal("expected error casting \"123abc\" to Integer")
	}
}

func TestCastStringToIntegerRejectsNonIntegralString(t *testing.T) {
	v := StringValue("3.5")
	if _, err := v.CastTo(nil, Integer); err == nil {
		t.Fatal("expected error casting \"3.5\" to Integer, not a silent truncation")
	}
}

func TestCastStringToIntegerParsesExactString(t *testing.T) {
	v := StringValue("123")
	casted, err := v.CastTo(nil, Integer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, _ := casted.Int()
	if i != 123 {
		t.Fatalf("expected 123, got %v", i)
	}
}

func TestCastStringToFloatRejectsTrailingGarbage(t *testing.T) {
	v := StringValue("3.5abc")
	if _, err := v.CastTo(nil, Float); err == nil {
		t.Fatal("expected error casting \"3.5abc\" to Float")
	}
}

func TestCastStringToFloatParsesExactString(t *testing.T) {
	v := StringValue("3.5")
	casted, err := v.CastTo(nil, Float)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, _ := casted.Float()
	if f != 3.5 {
		t.Fatalf("expected 3.5, got %v", f)
	}
}
