package decl

import (
	"fmt"
	"strconv"
	"strings"

	gfn "github.com/panyam/goutils/fn"
)

// Expr represents any node that evaluates to a value.
type Expr interface {
	Node
	exprNode()
}

type ExprBase struct {
	NodeInfo
}

func (e *ExprBase) exprNode() {}

func (e *ExprBase) String() string { return "{Expr}" }

// LiteralKind tags the payload carried by a LiteralExpr
type LiteralKind int

const (
	NullLiteral LiteralKind = iota
	BoolLiteral
	IntLiteral
	FloatLiteral
	StringLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case NullLiteral:
		return "null"
	case BoolLiteral:
		return "bool"
	case IntLiteral:
		return "int"
	case FloatLiteral:
		return "float"
	case StringLiteral:
		return "string"
	}
	return "unknown"
}

// LiteralExpr is a number, string, boolean or null literal.  Only the field
// matching Kind is meaningful.
type LiteralExpr struct {
	ExprBase
	Kind     LiteralKind
	Text     string // Raw lexeme as it appeared in the source
	BoolVal  bool
	IntVal   int64
	FloatVal float64
	StrVal   string // Escape decoded contents for string literals
}

func (l *LiteralExpr) String() string {
	if l.Text != "" {
		return l.Text
	}
	switch l.Kind {
	case BoolLiteral:
		return strconv.FormatBool(l.BoolVal)
	case IntLiteral:
		return strconv.FormatInt(l.IntVal, 10)
	case FloatLiteral:
		return strconv.FormatFloat(l.FloatVal, 'f', -1, 64)
	case StringLiteral:
		return strconv.Quote(l.StrVal)
	}
	return "null"
}

func (l *LiteralExpr) PrettyPrint(cp CodePrinter) { cp.Print(l.String()) }

// IdentifierExpr is a reference to a variable
type IdentifierExpr struct {
	ExprBase
	Name string
}

func (i *IdentifierExpr) String() string             { return i.Name }
func (i *IdentifierExpr) PrettyPrint(cp CodePrinter) { cp.Print(i.Name) }

// ListExpr represents `[a, b, ...]`
type ListExpr struct {
	ExprBase
	Items []Expr
}

func (l *ListExpr) String() string {
	return "[" + joinExprs(l.Items) + "]"
}

func (l *ListExpr) PrettyPrint(cp CodePrinter) { cp.Print(l.String()) }

// DictItem is a single `key: value` entry of a dict literal.  Keys are
// either identifiers or string literals and are always stored as strings.
type DictItem struct {
	Key    string
	KeyPos Location
	Value  Expr
}

// DictExpr represents `{k: v, ...}`.  Items keep their source order.
type DictExpr struct {
	ExprBase
	Items []*DictItem
}

func (d *DictExpr) String() string {
	items := gfn.Map(d.Items, func(item *DictItem) string {
		return fmt.Sprintf("%q: %s", item.Key, item.Value)
	})
	return "{" + strings.Join(items, ", ") + "}"
}

func (d *DictExpr) PrettyPrint(cp CodePrinter) { cp.Print(d.String()) }

// UnaryExpr represents prefix `+x` and `-x`
type UnaryExpr struct {
	ExprBase
	Operator string
	Right    Expr
}

func (u *UnaryExpr) String() string             { return fmt.Sprintf("(%s%s)", u.Operator, u.Right) }
func (u *UnaryExpr) PrettyPrint(cp CodePrinter) { cp.Print(u.String()) }

// BinaryExpr represents `left OP right`
type BinaryExpr struct {
	ExprBase
	Left     Expr
	Operator string
	Right    Expr
}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

func (b *BinaryExpr) PrettyPrint(cp CodePrinter) { cp.Print(b.String()) }

// CallExpr represents `func(args...)`
type CallExpr struct {
	ExprBase
	Function Expr
	ArgList  []Expr
}

func (c *CallExpr) String() string {
	return fmt.Sprintf("%s(%s)", c.Function, joinExprs(c.ArgList))
}

func (c *CallExpr) PrettyPrint(cp CodePrinter) { cp.Print(c.String()) }

// IndexExpr represents `receiver[index]`
type IndexExpr struct {
	ExprBase
	Receiver Expr
	Index    Expr
}

func (i *IndexExpr) String() string             { return fmt.Sprintf("%s[%s]", i.Receiver, i.Index) }
func (i *IndexExpr) PrettyPrint(cp CodePrinter) { cp.Print(i.String()) }

// MemberAccessExpr represents `receiver.member`
type MemberAccessExpr struct {
	ExprBase
	Receiver Expr
	Member   *IdentifierExpr
}

func (m *MemberAccessExpr) String() string {
	return fmt.Sprintf("%s.%s", m.Receiver, m.Member.Name)
}

func (m *MemberAccessExpr) PrettyPrint(cp CodePrinter) { cp.Print(m.String()) }

// IsAssignable reports whether an expression can appear on the left of `=`.
func IsAssignable(e Expr) bool {
	switch e.(type) {
	case *IdentifierExpr, *IndexExpr, *MemberAccessExpr:
		return true
	}
	return false
}

func joinExprs(exprs []Expr) string {
	return strings.Join(gfn.Map(exprs, func(e Expr) string { return e.String() }), ", ")
}
