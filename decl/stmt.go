package decl

import (
	"fmt"
	"strings"

	gfn "github.com/panyam/goutils/fn"
)

// Stmt represents any node that is executed for its effect.
type Stmt interface {
	Node
	stmtNode()
}

type StmtBase struct {
	NodeInfo
}

func (s *StmtBase) stmtNode() {}

// BlockStmt is a sequence of statements closed by `end`
type BlockStmt struct {
	StmtBase
	Statements []Stmt
}

func (b *BlockStmt) String() string {
	var out []string
	for _, s := range b.Statements {
		out = append(out, s.String())
	}
	return strings.Join(out, "; ")
}

func (b *BlockStmt) PrettyPrint(cp CodePrinter) {
	if b == nil {
		return
	}
	WithIndent(1, cp, func(cp CodePrinter) {
		for _, stmt := range b.Statements {
			stmt.PrettyPrint(cp)
			cp.Println("")
		}
	})
	cp.Print("end")
}

// ExprStmt represents an expression used as a statement (e.g., a call)
type ExprStmt struct {
	StmtBase
	Expression Expr
}

func (e *ExprStmt) String() string             { return e.Expression.String() }
func (e *ExprStmt) PrettyPrint(cp CodePrinter) { cp.Print(e.String()) }

// AssignmentStmt represents `target = value` where target is a variable,
// index or member access expression.
type AssignmentStmt struct {
	StmtBase
	Target Expr
	Value  Expr
}

func (a *AssignmentStmt) String() string             { return fmt.Sprintf("%s = %s", a.Target, a.Value) }
func (a *AssignmentStmt) PrettyPrint(cp CodePrinter) { cp.Print(a.String()) }

// DefStmt represents `def name(params) ... end`
type DefStmt struct {
	StmtBase
	Name   *IdentifierExpr
	Params []*IdentifierExpr
	Body   *BlockStmt
}

func (d *DefStmt) ParamNames() []string {
	return gfn.Map(d.Params, func(p *IdentifierExpr) string { return p.Name })
}

func (d *DefStmt) String() string {
	return fmt.Sprintf("def %s(%s) %s end", d.Name.Name, strings.Join(d.ParamNames(), ", "), d.Body)
}

func (d *DefStmt) PrettyPrint(cp CodePrinter) {
	cp.Printf("def %s(%s)\n", d.Name.Name, strings.Join(d.ParamNames(), ", "))
	d.Body.PrettyPrint(cp)
}

// MethodDefStmt represents `def obj.name(params) ... end`.  The function is
// attached as a property of the dict bound to Object.
type MethodDefStmt struct {
	StmtBase
	Object *IdentifierExpr
	Name   *IdentifierExpr
	Params []*IdentifierExpr
	Body   *BlockStmt
}

func (m *MethodDefStmt) ParamNames() []string {
	return gfn.Map(m.Params, func(p *IdentifierExpr) string { return p.Name })
}

func (m *MethodDefStmt) String() string {
	return fmt.Sprintf("def %s.%s(%s) %s end", m.Object.Name, m.Name.Name, strings.Join(m.ParamNames(), ", "), m.Body)
}

func (m *MethodDefStmt) PrettyPrint(cp CodePrinter) {
	cp.Printf("def %s.%s(%s)\n", m.Object.Name, m.Name.Name, strings.Join(m.ParamNames(), ", "))
	m.Body.PrettyPrint(cp)
}

// ReturnStmt represents `return expr`
type ReturnStmt struct {
	StmtBase
	ReturnValue Expr
}

func (r *ReturnStmt) String() string             { return "return " + r.ReturnValue.String() }
func (r *ReturnStmt) PrettyPrint(cp CodePrinter) { cp.Print(r.String()) }

// WhileStmt represents `while (cond) ... end`
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
}

func (w *WhileStmt) String() string { return fmt.Sprintf("while (%s) %s end", w.Condition, w.Body) }

func (w *WhileStmt) PrettyPrint(cp CodePrinter) {
	cp.Printf("while (%s)\n", w.Condition)
	w.Body.PrettyPrint(cp)
}

// IfStmt represents `if cond ... end`
type IfStmt struct {
	StmtBase
	Condition Expr
	Body      *BlockStmt
}

func (i *IfStmt) String() string { return fmt.Sprintf("if %s %s end", i.Condition, i.Body) }

func (i *IfStmt) PrettyPrint(cp CodePrinter) {
	cp.Printf("if %s\n", i.Condition)
	i.Body.PrettyPrint(cp)
}

// ForStmt represents `for (init; cond; step) ... end`
type ForStmt struct {
	StmtBase
	Init      Stmt
	Condition Expr
	Step      Stmt
	Body      *BlockStmt
}

func (f *ForStmt) String() string {
	return fmt.Sprintf("for (%s; %s; %s) %s end", f.Init, f.Condition, f.Step, f.Body)
}

func (f *ForStmt) PrettyPrint(cp CodePrinter) {
	cp.Printf("for (%s; %s; %s)\n", f.Init, f.Condition, f.Step)
	f.Body.PrettyPrint(cp)
}

// ForInStmt represents `for name in iterable ... end`
type ForInStmt struct {
	StmtBase
	Variable *IdentifierExpr
	Iterable Expr
	Body     *BlockStmt
}

func (f *ForInStmt) String() string {
	return fmt.Sprintf("for %s in %s %s end", f.Variable.Name, f.Iterable, f.Body)
}

func (f *ForInStmt) PrettyPrint(cp CodePrinter) {
	cp.Printf("for %s in %s\n", f.Variable.Name, f.Iterable)
	f.Body.PrettyPrint(cp)
}

// ImportStmt represents `import expr`
type ImportStmt struct {
	StmtBase
	Path Expr
}

func (i *ImportStmt) String() string             { return "import " + i.Path.String() }
func (i *ImportStmt) PrettyPrint(cp CodePrinter) { cp.Print(i.String()) }

// DelStmt represents `del expr`.  Only variables can be deleted; that is
// checked when the statement runs.
type DelStmt struct {
	StmtBase
	Target Expr
}

func (d *DelStmt) String() string             { return "del " + d.Target.String() }
func (d *DelStmt) PrettyPrint(cp CodePrinter) { cp.Print(d.String()) }
