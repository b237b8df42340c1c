package runtime

import (
	"maps"
	"slices"
)

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// ToValue converts plain Go data into a runtime value.  It understands
// nil, bools, ints, floats, strings, slices of any, string keyed maps and
// values that already are Values.
func ToValue(v any) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return Null, true
	case Value:
		return x, true
	case bool:
		return BoolValue(x), true
	case int:
		return IntValue(int64(x)), true
	case int64:
		return IntValue(x), true
	case float64:
		return FloatValue(x), true
	case string:
		return StringValue(x), true
	case []any:
		items := make([]Value, 0, len(x))
		for _, item := range x {
			iv, ok := ToValue(item)
			if !ok {
				return Null, false
			}
			items = append(items, iv)
		}
		return ListValue(&List{Items: items}), true
	case map[string]any:
		d := NewDict()
		for _, k := range sortedKeys(x) {
			iv, ok := ToValue(x[k])
			if !ok {
				return Null, false
			}
			d.Set(k, iv)
		}
		return DictValue(d), true
	}
	return Null, false
}

// FromValue is the inverse of ToValue.  Functions come back as *Function.
func FromValue(v Value) any {
	switch v.Kind {
	case BoolKind:
		return v.Bool()
	case IntKind:
		return v.Int()
	case FloatKind:
		return v.Float()
	case StringKind:
		return v.Str()
	case ListKind:
		out := make([]any, 0, v.List().Len())
		for _, item := range v.List().Items {
			out = append(out, FromValue(item))
		}
		return out
	case DictKind:
		out := map[string]any{}
		for _, k := range v.Dict().Keys() {
			item, _ := v.Dict().Get(k)
			out[k] = FromValue(item)
		}
		return out
	case FunctionKind:
		return v.Function()
	}
	return nil
}
