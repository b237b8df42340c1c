package runtime

import (
	"math"
	"strings"

	"github.com/panyam/ros/decl"
)

// BinaryOpFunc computes `left OP right`.  Errors it returns carry no
// position; the evaluator fills that in.
type BinaryOpFunc func(left, right Value) (Value, error)

// UnaryOpFunc computes `OP operand`.
type UnaryOpFunc func(operand Value) (Value, error)

type binaryKey struct {
	Op          string
	Left, Right ValueKind
}

type unaryKey struct {
	Op      string
	Operand ValueKind
}

var (
	binaryOps = map[binaryKey]BinaryOpFunc{}
	unaryOps  = map[unaryKey]UnaryOpFunc{}

	numericKinds = []ValueKind{BoolKind, IntKind, FloatKind}
	integerKinds = []ValueKind{BoolKind, IntKind}
)

// RegisterBinaryOp installs f for every combination of the given kinds.
// Later registrations replace earlier ones.
func RegisterBinaryOp(op string, lefts, rights []ValueKind, f BinaryOpFunc) {
	for _, l := range lefts {
		for _, r := range rights {
			binaryOps[binaryKey{op, l, r}] = f
		}
	}
}

// RegisterUnaryOp installs f for each of the given operand kinds.
func RegisterUnaryOp(op string, kinds []ValueKind, f UnaryOpFunc) {
	for _, k := range kinds {
		unaryOps[unaryKey{op, k}] = f
	}
}

// ApplyBinaryOp looks up and runs the handler for the operand kinds.
// Equality falls back to Equals for kinds with no handler so comparing
// unrelated kinds is false rather than an error.
func ApplyBinaryOp(op string, left, right Value) (Value, error) {
	if f, ok := binaryOps[binaryKey{op, left.Kind, right.Kind}]; ok {
		return f(left, right)
	}
	switch op {
	case "==":
		return BoolValue(left.Equals(right)), nil
	case "!=":
		return BoolValue(!left.Equals(right)), nil
	}
	return Null, invalidOperands("unsupported operands for %s: %s and %s", op, left.TypeName(), right.TypeName())
}

// ApplyUnaryOp looks up and runs the handler for the operand kind.
func ApplyUnaryOp(op string, operand Value) (Value, error) {
	if f, ok := unaryOps[unaryKey{op, operand.Kind}]; ok {
		return f(operand)
	}
	return Null, invalidOperands("unsupported operand for unary %s: %s", op, operand.TypeName())
}

func invalidOperands(format string, args ...any) error {
	return TypeErrorf(decl.CodeInvalidOperands, Location{}, format, args...)
}

func invalidIndex(format string, args ...any) error {
	return TypeErrorf(decl.CodeInvalidIndex, Location{}, format, args...)
}

// numeric builds an arithmetic handler.  Int and Bool pairs stay integral
// when intOp is given and the result fits in an int64.  Anything involving
// a Float, or an integer result that overflows, is computed in float64.
func numeric(floatOp func(a, b float64) float64, intOp func(a, b int64) (int64, bool)) BinaryOpFunc {
	return func(left, right Value) (Value, error) {
		if intOp != nil && left.Kind != FloatKind && right.Kind != FloatKind {
			a, _ := left.AsInt()
			b, _ := right.AsInt()
			if c, ok := intOp(a, b); ok {
				return IntValue(c), nil
			}
		}
		a, _ := left.AsFloat()
		b, _ := right.AsFloat()
		return FloatValue(floatOp(a, b)), nil
	}
}

// addInt, subInt and mulInt report false when the result does not fit.
func addInt(a, b int64) (int64, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

func comparison(cmp func(a, b float64) bool) BinaryOpFunc {
	return func(left, right Value) (Value, error) {
		a, _ := left.AsFloat()
		b, _ := right.AsFloat()
		return BoolValue(cmp(a, b)), nil
	}
}

func stringComparison(cmp func(a, b string) bool) BinaryOpFunc {
	return func(left, right Value) (Value, error) {
		return BoolValue(cmp(left.Str(), right.Str())), nil
	}
}

func repeatString(left, right Value) (Value, error) {
	count, _ := right.AsInt()
	if count <= 0 {
		return StringValue(""), nil
	}
	if int64(len(left.Str()))*count > math.MaxInt32 {
		return Null, invalidOperands("string repeat count %d too large", count)
	}
	return StringValue(strings.Repeat(left.Str(), int(count))), nil
}

// appendToList mutates the list in place and evaluates to it.
func appendToList(left, right Value) (Value, error) {
	left.List().Append(right)
	return left, nil
}

func removeFromList(left, right Value) (Value, error) {
	index, _ := right.AsInt()
	if !left.List().RemoveAt(index) {
		return Null, invalidIndex("list index %d out of range (len %d)", index, left.List().Len())
	}
	return left, nil
}

func popList(operand Value) (Value, error) {
	if _, ok := operand.List().Pop(); !ok {
		return Null, invalidIndex("pop from empty list")
	}
	return operand, nil
}

func init() {
	RegisterBinaryOp("+", numericKinds, numericKinds, numeric(func(a, b float64) float64 { return a + b }, addInt))
	RegisterBinaryOp("-", numericKinds, numericKinds, numeric(func(a, b float64) float64 { return a - b }, subInt))
	RegisterBinaryOp("*", numericKinds, numericKinds, numeric(func(a, b float64) float64 { return a * b }, mulInt))
	RegisterBinaryOp("/", numericKinds, numericKinds, numeric(func(a, b float64) float64 { return a / b }, nil))

	RegisterBinaryOp("<", numericKinds, numericKinds, comparison(func(a, b float64) bool { return a < b }))
	RegisterBinaryOp(">", numericKinds, numericKinds, comparison(func(a, b float64) bool { return a > b }))
	RegisterBinaryOp("<=", numericKinds, numericKinds, comparison(func(a, b float64) bool { return a <= b }))
	RegisterBinaryOp(">=", numericKinds, numericKinds, comparison(func(a, b float64) bool { return a >= b }))
	RegisterBinaryOp("==", numericKinds, numericKinds, comparison(func(a, b float64) bool { return a == b }))
	RegisterBinaryOp("!=", numericKinds, numericKinds, comparison(func(a, b float64) bool { return a != b }))

	strs := []ValueKind{StringKind}
	RegisterBinaryOp("+", strs, strs, func(left, right Value) (Value, error) {
		return StringValue(left.Str() + right.Str()), nil
	})
	RegisterBinaryOp("*", strs, integerKinds, repeatString)
	RegisterBinaryOp("*", strs, []ValueKind{FloatKind}, func(left, right Value) (Value, error) {
		return Null, invalidOperands("can't multiply string by non-int %s", right.Repr())
	})
	RegisterBinaryOp("==", strs, strs, stringComparison(func(a, b string) bool { return a == b }))
	RegisterBinaryOp("!=", strs, strs, stringComparison(func(a, b string) bool { return a != b }))

	lists := []ValueKind{ListKind}
	allKinds := []ValueKind{NullKind, BoolKind, IntKind, FloatKind, StringKind, ListKind, DictKind, FunctionKind}
	RegisterBinaryOp("+", lists, allKinds, appendToList)
	RegisterBinaryOp("-", lists, integerKinds, removeFromList)

	RegisterUnaryOp("-", []ValueKind{BoolKind, IntKind}, func(v Value) (Value, error) {
		i, _ := v.AsInt()
		if i == math.MinInt64 {
			return FloatValue(-float64(i)), nil
		}
		return IntValue(-i), nil
	})
	RegisterUnaryOp("+", []ValueKind{BoolKind, IntKind}, func(v Value) (Value, error) {
		i, _ := v.AsInt()
		return IntValue(i), nil
	})
	RegisterUnaryOp("-", []ValueKind{FloatKind}, func(v Value) (Value, error) { return FloatValue(-v.Float()), nil })
	RegisterUnaryOp("+", []ValueKind{FloatKind}, func(v Value) (Value, error) { return v, nil })
	RegisterUnaryOp("-", lists, popList)
}
