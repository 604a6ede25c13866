package shape

// MergeShapes combines two observed shapes into one that admits both.
//
// Unknown is the identity. Shapes of the same kind merge structurally:
// primitives merge to themselves, arrays merge item shapes, objects take the
// union of field names marking one-sided fields optional, and unions take the
// set union of variants with structural de-duplication. Shapes of differing
// kinds wrap into a two-variant union; an operand that is already a union is
// flattened into the result rather than nested.
//
// Neither operand is mutated.
func MergeShapes(a, b Shape) Shape {
	if _, ok := a.(Unknown); ok {
		return b
	}
	if _, ok := b.(Unknown); ok {
		return a
	}

	switch av := a.(type) {
	case Primitive:
		if bv, ok := b.(Primitive); ok && bv.Kind == av.Kind {
			return av
		}
	case Array:
		if bv, ok := b.(Array); ok {
			return Array{Item: MergeShapes(av.Item, bv.Item)}
		}
	case Object:
		if bv, ok := b.(Object); ok {
			return mergeObjects(av, bv)
		}
	case Union:
		return mergeIntoUnion(av.Variants, b)
	}

	if bv, ok := b.(Union); ok {
		return mergeIntoUnion(bv.Variants, a)
	}
	return Union{Variants: []Shape{a, b}}
}

func mergeObjects(a, b Object) Object {
	fields := make(map[string]Field, len(a.Fields)+len(b.Fields))
	for name, af := range a.Fields {
		if bf, present := b.Fields[name]; present {
			fields[name] = Field{
				Shape:    MergeShapes(af.Shape, bf.Shape),
				Optional: af.Optional || bf.Optional,
			}
			continue
		}
		fields[name] = Field{Shape: af.Shape, Optional: true}
	}
	for name, bf := range b.Fields {
		if _, present := a.Fields[name]; !present {
			fields[name] = Field{Shape: bf.Shape, Optional: true}
		}
	}
	return Object{Fields: fields}
}

// mergeIntoUnion folds other into an existing variant set. A union operand
// contributes its variants individually so unions never nest.
func mergeIntoUnion(variants []Shape, other Shape) Shape {
	merged := append([]Shape(nil), variants...)

	add := func(s Shape) {
		if !containsVariant(merged, s) {
			merged = append(merged, s)
		}
	}

	if u, ok := other.(Union); ok {
		for _, v := range u.Variants {
			add(v)
		}
	} else {
		add(other)
	}

	if len(merged) == 1 {
		return merged[0]
	}
	return Union{Variants: merged}
}
