package shape

import (
	"sort"
	"strings"
)

// PrimitiveKind identifies a scalar JSON kind.
type PrimitiveKind string

// Primitive kinds, in widening order of specificity for rendering only.
const (
	KindNull    PrimitiveKind = "null"
	KindString  PrimitiveKind = "string"
	KindInteger PrimitiveKind = "integer"
	KindNumber  PrimitiveKind = "number"
	KindBoolean PrimitiveKind = "boolean"
)

// Shape is a structural description of a JSON-like value.
//
// Contract:
// - Immutability: shapes are never mutated after construction; merge
//   operations return new nodes.
// - Equality: Equal is deep structural equivalence, insensitive to field
//   ordering and union variant ordering.
type Shape interface {
	// Equal reports deep structural equivalence with other.
	Equal(other Shape) bool

	// String renders the shape as a compact type annotation.
	String() string

	isShape()
}

// Unknown is the shape of a tool absent any observation.
type Unknown struct{}

func (Unknown) isShape() {}

// Equal reports whether other is also Unknown.
func (Unknown) Equal(other Shape) bool {
	_, ok := other.(Unknown)
	return ok
}

func (Unknown) String() string { return "unknown" }

// Primitive is the shape of a scalar value.
type Primitive struct {
	Kind PrimitiveKind
}

func (Primitive) isShape() {}

// Equal reports whether other is a primitive of the same kind.
func (p Primitive) Equal(other Shape) bool {
	o, ok := other.(Primitive)
	return ok && o.Kind == p.Kind
}

func (p Primitive) String() string { return string(p.Kind) }

// Array is the shape of a list-like value.
type Array struct {
	// Item is the merged shape of all observed elements.
	// Unknown for an empty array.
	Item Shape
}

func (Array) isShape() {}

// Equal reports whether other is an array with a structurally equal item shape.
func (a Array) Equal(other Shape) bool {
	o, ok := other.(Array)
	return ok && a.Item.Equal(o.Item)
}

func (a Array) String() string { return "array<" + a.Item.String() + ">" }

// Field is a named member of an object shape.
type Field struct {
	Shape Shape

	// Optional marks a field absent from at least one observed sample.
	Optional bool
}

// Object is the shape of a map-like value.
type Object struct {
	Fields map[string]Field
}

func (Object) isShape() {}

// Equal reports whether other is an object with the same fields, shapes,
// and optionality.
func (obj Object) Equal(other Shape) bool {
	o, ok := other.(Object)
	if !ok || len(o.Fields) != len(obj.Fields) {
		return false
	}
	for name, f := range obj.Fields {
		of, present := o.Fields[name]
		if !present || of.Optional != f.Optional || !of.Shape.Equal(f.Shape) {
			return false
		}
	}
	return true
}

func (obj Object) String() string {
	names := make([]string, 0, len(obj.Fields))
	for name := range obj.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		f := obj.Fields[name]
		b.WriteString(name)
		if f.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		b.WriteString(f.Shape.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Union is a set of pairwise structurally distinct variant shapes.
type Union struct {
	Variants []Shape
}

func (Union) isShape() {}

// Equal reports whether other is a union with the same variant set,
// regardless of order.
func (u Union) Equal(other Shape) bool {
	o, ok := other.(Union)
	if !ok || len(o.Variants) != len(u.Variants) {
		return false
	}
	for _, v := range u.Variants {
		if !containsVariant(o.Variants, v) {
			return false
		}
	}
	return true
}

func (u Union) String() string {
	parts := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		parts[i] = v.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, " | ")
}

func containsVariant(variants []Shape, s Shape) bool {
	for _, v := range variants {
		if v.Equal(s) {
			return true
		}
	}
	return false
}
