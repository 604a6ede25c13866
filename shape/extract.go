package shape

import (
	"encoding/json"
	"math/big"
)

// Extract maps a JSON-like value to its shape.
//
// A single extraction yields Primitive, Array, or Object; unions only arise
// when the elements of a heterogeneous array disagree, in which case the item
// shape converges to a Union via [MergeShapes]. A nil input is the null
// primitive; values of unrecognized Go types extract to Unknown rather than
// failing, matching the lossy-but-total contract of the marshaling layer.
func Extract(value any) Shape {
	switch v := value.(type) {
	case nil:
		return Primitive{Kind: KindNull}
	case bool:
		return Primitive{Kind: KindBoolean}
	case string:
		return Primitive{Kind: KindString}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int:
		return Primitive{Kind: KindInteger}
	case float32:
		return extractFloat(float64(v))
	case float64:
		return extractFloat(v)
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return Primitive{Kind: KindInteger}
		}
		return Primitive{Kind: KindNumber}
	case []any:
		return extractArray(v)
	case map[string]any:
		return extractObject(v)
	default:
		return Unknown{}
	}
}

// extractFloat classifies float-typed values as "number" even when integral;
// primitives never widen after the fact.
func extractFloat(float64) Shape {
	return Primitive{Kind: KindNumber}
}

func extractArray(items []any) Shape {
	if len(items) == 0 {
		return Array{Item: Unknown{}}
	}
	item := Extract(items[0])
	for _, elem := range items[1:] {
		item = MergeShapes(item, Extract(elem))
	}
	return Array{Item: item}
}

func extractObject(m map[string]any) Shape {
	fields := make(map[string]Field, len(m))
	for name, v := range m {
		fields[name] = Field{Shape: Extract(v)}
	}
	return Object{Fields: fields}
}
