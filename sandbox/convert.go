package sandbox

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/dop251/goja"
)

// CircularRef is the sentinel substituted for a cyclic branch during
// guest-to-host conversion.
const CircularRef = "<circular reference>"

// ToHost converts a guest value to a host-native value: nil, bool, string,
// int, int64, *big.Int, float64, []any, or map[string]any.
//
// Numbers take the smallest host representation that loses no precision:
// int when the value fits, else int64, else *big.Int (guest BigInt).
// Map-likeness is structural: any non-callable object exposing enumerable
// own keys converts as a mapping, regardless of its class. Language-internal
// constructs (functions, classes) collapse to a lossless opaque string and
// are never deep-converted; undefined converts to no value (nil).
//
// Conversion is total: unexpected shapes fall back to the guest's string
// rendering rather than failing. Reference cycles are detected by object
// identity and resolve to [CircularRef]; the visited mark is released on
// unwind, so a node reachable via two independent acyclic paths converts
// twice instead of being memoized away.
func ToHost(v goja.Value) (out any) {
	// Property reads can run guest accessors, and a throwing getter panics
	// out of the interpreter. Conversion must stay total.
	defer func() {
		if r := recover(); r != nil {
			out = recoveredString(r)
		}
	}()
	return toHost(v, make(map[*goja.Object]bool))
}

// recoveredString renders a guest panic value for the lossy fallback.
func recoveredString(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(r)
}

func toHost(v goja.Value, visited map[*goja.Object]bool) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}

	obj, isObject := v.(*goja.Object)
	if !isObject {
		return hostScalar(v)
	}

	if visited[obj] {
		return CircularRef
	}

	if _, callable := goja.AssertFunction(obj); callable {
		return opaqueCallable(obj)
	}

	visited[obj] = true
	defer delete(visited, obj)

	switch obj.ClassName() {
	case "Array":
		return hostArray(obj, visited)
	case "Error":
		// Error own properties are mostly non-enumerable; the rendered
		// "Name: message" string is the lossless form.
		return v.String()
	default:
		return hostObject(obj, visited)
	}
}

func hostScalar(v goja.Value) any {
	switch ev := v.Export().(type) {
	case bool:
		return ev
	case string:
		return ev
	case int64:
		return shrinkInt(ev)
	case float64:
		return ev
	case *big.Int:
		if ev.IsInt64() {
			return shrinkInt(ev.Int64())
		}
		return ev
	default:
		// Symbols and other exotic scalars reduce to their string form.
		return v.String()
	}
}

// shrinkInt narrows an integral value to int when it round-trips.
func shrinkInt(v int64) any {
	if int64(int(v)) == v {
		return int(v)
	}
	return v
}

func hostArray(obj *goja.Object, visited map[*goja.Object]bool) []any {
	length := int(obj.Get("length").ToInteger())
	out := make([]any, 0, length)
	for i := 0; i < length; i++ {
		out = append(out, hostProperty(obj, strconv.Itoa(i), visited))
	}
	return out
}

func hostObject(obj *goja.Object, visited map[*goja.Object]bool) map[string]any {
	keys := obj.Keys()
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		out[key] = hostProperty(obj, key, visited)
	}
	return out
}

// hostProperty converts one own property. Reading an accessor property runs
// its getter, and a throwing getter panics out of the interpreter; only the
// offending node degrades to the exception's rendering.
func hostProperty(obj *goja.Object, key string, visited map[*goja.Object]bool) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = recoveredString(r)
		}
	}()
	return toHost(obj.Get(key), visited)
}

func opaqueCallable(obj *goja.Object) string {
	name := ""
	if nv := obj.Get("name"); nv != nil && !goja.IsUndefined(nv) {
		name = nv.String()
	}
	if name == "" {
		return "<function>"
	}
	return "<function " + name + ">"
}
