package parser

// Binding powers for the expression parser.  An infix operator only extends
// the left hand side while its power is greater than the power the caller
// is parsing at.
const (
	BPNone       = 0
	BPEquality   = 35 // == !=
	BPRelational = 40 // < > <= >=
	BPAdditive   = 50 // + -
	BPMultiply   = 60 // * /
	BPPrefix     = 70 // unary + -
	BPPostfix    = 90 // call, index and member access
)

// Associativity of a binary operator.
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeft
	AssocRight
)

// Precedencer decides how tightly operators bind.
type Precedencer interface {
	// PrecedenceFor returns the left binding power of an infix or postfix
	// operator.  Anything that is not an operator returns BPNone.
	PrecedenceFor(operator string) int
	AssociativityFor(operator string) Associativity
}

// DefaultPrecedencer is the operator table of the language.
type DefaultPrecedencer struct{}

var bindingPowers = map[string]int{
	"(":  BPPostfix,
	"[":  BPPostfix,
	".":  BPPostfix,
	"*":  BPMultiply,
	"/":  BPMultiply,
	"+":  BPAdditive,
	"-":  BPAdditive,
	"<":  BPRelational,
	">":  BPRelational,
	"<=": BPRelational,
	">=": BPRelational,
	"==": BPEquality,
	"!=": BPEquality,
}

func (DefaultPrecedencer) PrecedenceFor(operator string) int {
	return bindingPowers[operator]
}

// All binary operators are left associative.
func (DefaultPrecedencer) AssociativityFor(operator string) Associativity {
	if _, ok := bindingPowers[operator]; ok {
		return AssocLeft
	}
	return AssocNone
}

// IsBinaryOperator reports whether the operator builds a BinaryExpr (as
// opposed to the postfix call, index and member forms).
func IsBinaryOperator(operator string) bool {
	bp := bindingPowers[operator]
	return bp > BPNone && bp < BPPostfix
}
