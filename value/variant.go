// Package value implements the typed value model: the variant hierarchy
// (Null, Boolean, Integer, Float, String, Sequence, StringMap, plus the
// externally-defined Data and File variants) and the caster registry that
// transparently converts between them.
package value

import "strings"

// Origin names one of the built-in, non-generic variant kinds. Generic
// kinds (Sequence, StringMap) and the externally-defined Data/File kinds
// carry their own Origin constant but distinguish themselves further via
// Key().
type Origin string

const (
	OriginNull      Origin = "Null"
	OriginBoolean   Origin = "Boolean"
	OriginInteger   Origin = "Integer"
	OriginFloat     Origin = "Float"
	OriginString    Origin = "String"
	OriginSequence  Origin = "Sequence"
	OriginStringMap Origin = "StringMap"
	OriginData      Origin = "Data"
	OriginFile      Origin = "File"
)

// Variant is a type in the value algebra. Concrete variants are either
// leaf kinds (Null, Boolean, Integer, Float, String — singletons, see
// below), generic container kinds (Sequence, StringMap, parameterized by
// one argument variant), or externally-defined named kinds (record.Type,
// vfile.Kind) that implement this interface themselves.
//
// Key returns a string that uniquely identifies the variant, including
// its arguments recursively — e.g. "Sequence<Integer>" vs
// "Sequence<Float>". It is the basis for cast-cache indexing and caster
// registry lookups, mirroring the recursive (origin, args) key the
// original implementation hashes on.
type Variant interface {
	Origin() Origin
	Args() []Variant
	Key() string
}

// leaf is a non-generic, argument-less variant. All five instances below
// are comparable by identity since they carry no state.
type leaf struct {
	origin Origin
}

func (l leaf) Origin() Origin   { return l.origin }
func (l leaf) Args() []Variant  { return nil }
func (l leaf) Key() string      { return string(l.origin) }

var (
	Null    Variant = leaf{OriginNull}
	Boolean Variant = leaf{OriginBoolean}
	Integer Variant = leaf{OriginInteger}
	Float   Variant = leaf{OriginFloat}
	String  Variant = leaf{OriginString}
)

// Sequence is the variant of an ordered list whose elements all have
// variant Elem.
type Sequence struct {
	Elem Variant
}

func (s Sequence) Origin() Origin  { return OriginSequence }
func (s Sequence) Args() []Variant { return []Variant{s.Elem} }
func (s Sequence) Key() string     { return "Sequence<" + s.Elem.Key() + ">" }

// StringMap is the variant of a string-keyed map whose values all have
// variant Elem. Key order is not significant.
type StringMap struct {
	Elem Variant
}

func (m StringMap) Origin() Origin  { return OriginStringMap }
func (m StringMap) Args() []Variant { return []Variant{m.Elem} }
func (m StringMap) Key() string     { return "StringMap<" + m.Elem.Key() + ">" }

// SameVariant reports whether two variants denote the same type, by key
// equality. Two variant values with equal Key always behave identically
// under casting and equality.
func SameVariant(a, b Variant) bool {
	return a.Key() == b.Key()
}

// joinKeys is a helper for externally-defined generic variants that want
// to build a Key() the same way Sequence/StringMap do.
func joinKeys(origin Origin, args []Variant) string {
	if len(args) == 0 {
		return string(origin)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Key()
	}
	var b strings.Builder
	b.WriteString(string(origin))
	b.WriteByte('<')
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p)
	}
	b.WriteByte('>')
	return b.String()
}

// JoinKeys is the exported form of joinKeys, for use by packages (record,
// vfile) that define their own named Variant implementations.
func JoinKeys(origin Origin, args []Variant) string { return joinKeys(origin, args) }
