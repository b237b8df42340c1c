package runtime

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	gfn "github.com/panyam/goutils/fn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panyam/ros/decl"
)

type builtin struct {
	Name   string
	Params []string
	Fn     NativeFunc
}

// Builtins installed in every base environment, in installation order.
var builtins = []builtin{
	{"print", []string{"values"}, Native_print},
	{"len", []string{"x"}, Native_len},
	{"range", []string{"a", "b", "c"}, Native_range},
	{"upper", []string{"x"}, Native_upper},
	{"lower", []string{"x"}, Native_lower},
	{"split", []string{"x", "sep"}, Native_split},
	{"type", []string{"value"}, Native_type},
	{"isType", []string{"value", "type"}, Native_isType},
	{"cast", []string{"value", "type"}, Native_cast},
	{"addToEnv", []string{"name", "value"}, Native_addToEnv},
	{"input", []string{"prompt"}, Native_input},
	{"delay", []string{"sec"}, Native_delay},
}

func invalidArgument(format string, args ...any) error {
	return TypeErrorf(decl.CodeInvalidArgument, Location{}, format, args...)
}

// arg returns the i'th argument, or null when fewer were passed.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Null
}

func stringArg(fname string, args []Value, i int) (string, error) {
	v := arg(args, i)
	if v.Kind != StringKind {
		return "", invalidArgument("%s expects a string, got %s", fname, v.TypeName())
	}
	return v.Str(), nil
}

func intArg(fname string, args []Value, i int) (int64, error) {
	v := arg(args, i)
	if v.Kind != IntKind && v.Kind != BoolKind {
		return 0, invalidArgument("%s expects integers, got %s", fname, v.TypeName())
	}
	n, _ := v.AsInt()
	return n, nil
}

// Native_print writes its arguments separated by spaces followed by a newline.
func Native_print(call *CallContext, args []Value) (Value, error) {
	line := strings.Join(gfn.Map(args, func(v Value) string { return v.String() }), " ")
	_, err := fmt.Fprintln(call.Runtime().Stdout, line)
	return Null, err
}

func Native_len(call *CallContext, args []Value) (Value, error) {
	v := arg(args, 0)
	switch v.Kind {
	case StringKind:
		return IntValue(int64(utf8.RuneCountInString(v.Str()))), nil
	case ListKind:
		return IntValue(int64(v.List().Len())), nil
	case DictKind:
		return IntValue(int64(v.Dict().Len())), nil
	}
	return Null, invalidArgument("object of type %s has no len()", v.TypeName())
}

// maxRangeLen bounds the lists range will build.
const maxRangeLen = 1 << 24

// Native_range mirrors Python's range(stop), range(start, stop) and
// range(start, stop, step) but returns a list.
func Native_range(call *CallContext, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return Null, invalidArgument("range expects 1 to 3 arguments, got %d", len(args))
	}
	vals := make([]int64, len(args))
	for i := range args {
		n, err := intArg("range", args, i)
		if err != nil {
			return Null, err
		}
		vals[i] = n
	}
	start, stop, step := int64(0), vals[0], int64(1)
	if len(vals) > 1 {
		start, stop = vals[0], vals[1]
	}
	if len(vals) > 2 {
		step = vals[2]
	}
	if step == 0 {
		return Null, invalidArgument("range step must not be zero")
	}

	var items []Value
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		if len(items) >= maxRangeLen {
			return Null, invalidArgument("range of more than %d items", maxRangeLen)
		}
		items = append(items, IntValue(i))
	}
	return ListValue(&List{Items: items}), nil
}

func Native_upper(call *CallContext, args []Value) (Value, error) {
	s, err := stringArg("upper", args, 0)
	if err != nil {
		return Null, err
	}
	return StringValue(cases.Upper(language.Und).String(s)), nil
}

func Native_lower(call *CallContext, args []Value) (Value, error) {
	s, err := stringArg("lower", args, 0)
	if err != nil {
		return Null, err
	}
	return StringValue(cases.Lower(language.Und).String(s)), nil
}

func Native_split(call *CallContext, args []Value) (Value, error) {
	s, err := stringArg("split", args, 0)
	if err != nil {
		return Null, err
	}
	sep, err := stringArg("split", args, 1)
	if err != nil {
		return Null, err
	}
	if sep == "" {
		return Null, invalidArgument("split separator must not be empty")
	}
	parts := gfn.Map(strings.Split(s, sep), StringValue)
	return ListValue(&List{Items: parts}), nil
}

func Native_type(call *CallContext, args []Value) (Value, error) {
	return StringValue(arg(args, 0).TypeName()), nil
}

func Native_isType(call *CallContext, args []Value) (Value, error) {
	name, err := stringArg("isType", args, 1)
	if err != nil {
		return Null, err
	}
	return BoolValue(arg(args, 0).TypeName() == name), nil
}

// Native_cast converts a value to one of str, int, float, list or dict.
func Native_cast(call *CallContext, args []Value) (Value, error) {
	kind, err := stringArg("cast", args, 1)
	if err != nil {
		return Null, err
	}
	v := arg(args, 0)
	out, err := castValue(v, kind)
	if err != nil {
		return Null, invalidArgument("failed to cast %s to %s: %v", v.Repr(), kind, err)
	}
	return out, nil
}

var errUnsupportedCast = errors.New("unsupported conversion")

func castValue(v Value, kind string) (Value, error) {
	switch kind {
	case "str":
		return StringValue(v.String()), nil
	case "int":
		switch v.Kind {
		case BoolKind, IntKind:
			n, _ := v.AsInt()
			return IntValue(n), nil
		case FloatKind:
			return IntValue(int64(v.Float())), nil
		case StringKind:
			n, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64)
			return IntValue(n), err
		}
	case "float":
		if f, ok := v.AsFloat(); ok {
			return FloatValue(f), nil
		}
		if v.Kind == StringKind {
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
			return FloatValue(f), err
		}
	case "list":
		switch v.Kind {
		case ListKind:
			return NewListValue(v.List().Items...), nil
		case StringKind:
			var items []Value
			for _, r := range v.Str() {
				items = append(items, StringValue(string(r)))
			}
			return ListValue(&List{Items: items}), nil
		case DictKind:
			return ListValue(&List{Items: gfn.Map(v.Dict().Keys(), StringValue)}), nil
		}
	case "dict":
		switch v.Kind {
		case DictKind:
			out := NewDict()
			for _, k := range v.Dict().Keys() {
				val, _ := v.Dict().Get(k)
				out.Set(k, val)
			}
			return DictValue(out), nil
		case ListKind:
			out := NewDict()
			for _, pair := range v.List().Items {
				if pair.Kind != ListKind || pair.List().Len() != 2 || pair.List().Items[0].Kind != StringKind {
					return Null, fmt.Errorf("expected [key, value] pairs with string keys, got %s", pair.Repr())
				}
				out.Set(pair.List().Items[0].Str(), pair.List().Items[1])
			}
			return DictValue(out), nil
		}
	default:
		return Null, fmt.Errorf("unknown type: %s", kind)
	}
	return Null, errUnsupportedCast
}

// Native_addToEnv assigns a variable in the caller's scope.
func Native_addToEnv(call *CallContext, args []Value) (Value, error) {
	name, err := stringArg("addToEnv", args, 0)
	if err != nil {
		return Null, err
	}
	return Null, call.Env.Set(name, arg(args, 1))
}

// Native_input prints an optional prompt and reads one line through the
// runtime's Prompter.  At end of input it returns null.
func Native_input(call *CallContext, args []Value) (Value, error) {
	prompt := ""
	if len(args) > 0 {
		prompt = arg(args, 0).String()
	}
	line, err := call.Runtime().prompter().Prompt(prompt)
	if errors.Is(err, io.EOF) {
		return Null, nil
	}
	if err != nil {
		return Null, err
	}
	return StringValue(line), nil
}

// Native_delay sleeps for a number of seconds.
func Native_delay(call *CallContext, args []Value) (Value, error) {
	v := arg(args, 0)
	secs, ok := v.AsFloat()
	if !ok || v.Kind == BoolKind {
		return Null, invalidArgument("delay only expects int or floats (sec) as delay value, got %s", v.TypeName())
	}
	if secs > 0 {
		call.Runtime().Sleep(time.Duration(secs * float64(time.Second)))
	}
	return Null, nil
}
