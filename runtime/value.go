package runtime

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	gfn "github.com/panyam/goutils/fn"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	NullKind ValueKind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	ListKind
	DictKind
	FunctionKind
)

func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "Null"
	case BoolKind:
		return "Bool"
	case IntKind:
		return "Int"
	case FloatKind:
		return "Float"
	case StringKind:
		return "String"
	case ListKind:
		return "List"
	case DictKind:
		return "Dict"
	case FunctionKind:
		return "Function"
	}
	return "Unknown"
}

// IsNumeric is true for the kinds that take part in arithmetic.
func (k ValueKind) IsNumeric() bool {
	return k == BoolKind || k == IntKind || k == FloatKind
}

// Value is a runtime value.  Scalars are copied, lists and dicts are
// shared handles so mutation through one alias is seen through all of
// them.  The zero Value is null.
type Value struct {
	Kind ValueKind
	raw  any
}

var (
	Null  = Value{}
	True  = BoolValue(true)
	False = BoolValue(false)
)

func BoolValue(b bool) Value          { return Value{Kind: BoolKind, raw: b} }
func IntValue(i int64) Value          { return Value{Kind: IntKind, raw: i} }
func FloatValue(f float64) Value      { return Value{Kind: FloatKind, raw: f} }
func StringValue(s string) Value      { return Value{Kind: StringKind, raw: s} }
func ListValue(l *List) Value         { return Value{Kind: ListKind, raw: l} }
func DictValue(d *Dict) Value         { return Value{Kind: DictKind, raw: d} }
func FunctionValue(f *Function) Value { return Value{Kind: FunctionKind, raw: f} }

// NewListValue wraps items in a fresh list.
func NewListValue(items ...Value) Value {
	return ListValue(&List{Items: items})
}

func (v Value) IsNull() bool { return v.Kind == NullKind }

func (v Value) Bool() bool {
	b, _ := v.raw.(bool)
	return b
}

func (v Value) Int() int64 {
	i, _ := v.raw.(int64)
	return i
}

func (v Value) Float() float64 {
	f, _ := v.raw.(float64)
	return f
}

func (v Value) Str() string {
	s, _ := v.raw.(string)
	return s
}

func (v Value) List() *List {
	l, _ := v.raw.(*List)
	return l
}

func (v Value) Dict() *Dict {
	d, _ := v.raw.(*Dict)
	return d
}

func (v Value) Function() *Function {
	f, _ := v.raw.(*Function)
	return f
}

// AsFloat returns the numeric value of a Bool, Int or Float.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case BoolKind:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case IntKind:
		return float64(v.Int()), true
	case FloatKind:
		return v.Float(), true
	}
	return 0, false
}

// AsInt returns the value of a Bool or Int.  Floats are only accepted when
// they hold a whole number.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case BoolKind:
		if v.Bool() {
			return 1, true
		}
		return 0, true
	case IntKind:
		return v.Int(), true
	case FloatKind:
		f := v.Float()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
	}
	return 0, false
}

// Truthy decides conditions.  Null, false and numeric zero are false,
// everything else (including empty strings and containers) is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case NullKind:
		return false
	case BoolKind:
		return v.Bool()
	case IntKind:
		return v.Int() != 0
	case FloatKind:
		return v.Float() != 0
	}
	return true
}

// TypeName is the name the `type` builtin reports.
func (v Value) TypeName() string {
	switch v.Kind {
	case NullKind:
		return "nil"
	case BoolKind:
		return "bool"
	case IntKind, FloatKind:
		return "number"
	case StringKind:
		return "str"
	case ListKind:
		return "list"
	case DictKind:
		return "obj"
	case FunctionKind:
		return "function"
	}
	return "unknown"
}

// String renders the value the way print shows it.  Strings are raw at the
// top level and quoted inside containers.
func (v Value) String() string {
	if v.Kind == StringKind {
		return v.Str()
	}
	return v.Repr()
}

// Repr renders the value as it would be written in source.
func (v Value) Repr() string {
	return v.repr(nil)
}

// repr tracks the containers being printed so self referencing ones
// render as "[...]" / "{...}" instead of recursing forever.
func (v Value) repr(seen []any) string {
	switch v.Kind {
	case NullKind:
		return "null"
	case BoolKind:
		return strconv.FormatBool(v.Bool())
	case IntKind:
		return strconv.FormatInt(v.Int(), 10)
	case FloatKind:
		return formatFloat(v.Float())
	case StringKind:
		return strconv.Quote(v.Str())
	case ListKind:
		l := v.List()
		if slices.Contains(seen, any(l)) {
			return "[...]"
		}
		seen = append(seen, l)
		return "[" + strings.Join(gfn.Map(l.Items, func(item Value) string { return item.repr(seen) }), ", ") + "]"
	case DictKind:
		d := v.Dict()
		if slices.Contains(seen, any(d)) {
			return "{...}"
		}
		seen = append(seen, d)
		return "{" + strings.Join(gfn.Map(d.Keys(), func(k string) string {
			val, _ := d.Get(k)
			return strconv.Quote(k) + ": " + val.repr(seen)
		}), ", ") + "}"
	case FunctionKind:
		return v.Function().String()
	}
	return "<unknown>"
}

// formatFloat keeps a decimal point on whole numbers so floats stay
// distinguishable from ints.
func formatFloat(f float64) string {
	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(out, ".eEIN") {
		out += ".0"
	}
	return out
}

// Equals compares by contents for scalars and by identity for containers
// and functions.  Numbers compare across Bool, Int and Float.
func (v Value) Equals(other Value) bool {
	if v.Kind.IsNumeric() && other.Kind.IsNumeric() {
		a, _ := v.AsFloat()
		b, _ := other.AsFloat()
		return a == b
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case NullKind:
		return true
	case StringKind:
		return v.Str() == other.Str()
	case ListKind:
		return v.List() == other.List()
	case DictKind:
		return v.Dict() == other.Dict()
	case FunctionKind:
		return v.Function() == other.Function()
	}
	return false
}

// List is the shared backing storage of a list value.
type List struct {
	Items []Value
}

func (l *List) Len() int { return len(l.Items) }

func (l *List) Append(v Value) { l.Items = append(l.Items, v) }

// Pop removes and returns the last item.
func (l *List) Pop() (Value, bool) {
	if len(l.Items) == 0 {
		return Null, false
	}
	last := l.Items[len(l.Items)-1]
	l.Items = l.Items[:len(l.Items)-1]
	return last, true
}

// normalize maps a possibly negative index onto the list, reporting
// whether it is in range.
func (l *List) normalize(index int64) (int, bool) {
	if index < 0 {
		index += int64(len(l.Items))
	}
	if index < 0 || index >= int64(len(l.Items)) {
		return 0, false
	}
	return int(index), true
}

func (l *List) Get(index int64) (Value, bool) {
	i, ok := l.normalize(index)
	if !ok {
		return Null, false
	}
	return l.Items[i], true
}

func (l *List) Set(index int64, v Value) bool {
	i, ok := l.normalize(index)
	if ok {
		l.Items[i] = v
	}
	return ok
}

// RemoveAt deletes the item at index shifting the rest down.
func (l *List) RemoveAt(index int64) bool {
	i, ok := l.normalize(index)
	if ok {
		l.Items = slices.Delete(l.Items, i, i+1)
	}
	return ok
}

// Dict is a string keyed map that remembers insertion order.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: make(map[string]Value)}
}

// NewDictValue builds a dict value holding entries, inserted in the order
// the keys are listed.  Keys missing from entries are skipped.
func NewDictValue(entries map[string]Value, order ...string) Value {
	d := NewDict()
	for _, k := range order {
		if v, ok := entries[k]; ok {
			d.Set(k, v)
		}
	}
	return DictValue(d)
}

func (d *Dict) Len() int { return len(d.keys) }

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Set adds or overwrites a key.  New keys go to the end.
func (d *Dict) Set(key string, v Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Delete(key string) bool {
	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns a copy of the keys in insertion order.
func (d *Dict) Keys() []string {
	return slices.Clone(d.keys)
}

// NativeFunc is a host implemented function.  It gets the evaluated
// arguments and the environment of the call site.
type NativeFunc func(call *CallContext, args []Value) (Value, error)

// Function is a closure over its defining environment, or a native.
type Function struct {
	Name   string
	Params []string
	Body   *BlockStmt
	Env    *Env
	Native NativeFunc
}

func (f *Function) IsNative() bool { return f.Native != nil }

func (f *Function) String() string {
	if f.IsNative() {
		return fmt.Sprintf("<native %s>", f.Name)
	}
	return fmt.Sprintf("<function %s(%s)>", f.Name, strings.Join(f.Params, ", "))
}

// NewNativeFunction wraps a host function as a value.
func NewNativeFunction(name string, fn NativeFunc, params ...string) Value {
	return FunctionValue(&Function{Name: name, Params: params, Native: fn})
}
