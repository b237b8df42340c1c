package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/panyam/ros/decl"
)

// ExecResult is the outcome of executing a statement.  A Returned result
// unwinds enclosing blocks up to the nearest function call.
type ExecResult struct {
	Returned bool
	Value    Value
}

// Normal is the result of a statement that completed without returning.
var Normal = ExecResult{}

func Returned(v Value) ExecResult {
	return ExecResult{Returned: true, Value: v}
}

// CallContext is what a native function gets to see of its caller.
type CallContext struct {
	Evaluator *Evaluator
	Env       *Env // Environment of the call site
	Pos       Location
}

func (c *CallContext) Runtime() *Runtime {
	return c.Evaluator.Runtime
}

// Evaluator walks the AST.  It is not safe for concurrent use; give each
// concurrent run its own Evaluator and root environment.
type Evaluator struct {
	Runtime *Runtime

	// Modules currently being imported, innermost last.
	importing []string

	// Number of user function calls in progress.
	depth int
}

func NewEvaluator(rt *Runtime) *Evaluator {
	return &Evaluator{Runtime: rt}
}

// withPos attaches pos to an interpreter error that does not have one yet.
func withPos(err error, pos Location) error {
	var e *decl.Error
	if errors.As(err, &e) && !e.Pos.IsValid() {
		e.Pos = pos
	}
	return err
}

// blockScope creates the child scope used by control flow bodies.
func (e *Evaluator) blockScope(env *Env) *Env {
	return env.PushBlock()
}

// declare binds loop variables and imported modules.  It is Set, except
// that strict mode creates unbound names in env itself rather than failing.
func declare(env *Env, name string, v Value) error {
	if env.Strict() && env.ResolveScope(name) == nil {
		env.SetHere(name, v)
		return nil
	}
	return env.Set(name, v)
}

// ExecProgram runs all top level statements in env.  A top level return
// stops the program.
func (e *Evaluator) ExecProgram(prog *Program, env *Env) (ExecResult, error) {
	return e.ExecBlock(prog.Statements, env)
}

// ExecBlock runs statements in order in env, stopping at the first return.
func (e *Evaluator) ExecBlock(stmts []Stmt, env *Env) (ExecResult, error) {
	for _, stmt := range stmts {
		res, err := e.ExecStmt(stmt, env)
		if err != nil || res.Returned {
			return res, err
		}
	}
	return Normal, nil
}

// ExecStmt dispatches on the statement kind.
func (e *Evaluator) ExecStmt(stmt Stmt, env *Env) (ExecResult, error) {
	var err error
	switch n := stmt.(type) {
	case *ExprStmt:
		_, err = e.EvalExpr(n.Expression, env)
	case *AssignmentStmt:
		err = e.execAssignment(n, env)
	case *ReturnStmt:
		var v Value
		if v, err = e.EvalExpr(n.ReturnValue, env); err == nil {
			return Returned(v), nil
		}
	case *DefStmt:
		env.SetHere(n.Name.Name, FunctionValue(&Function{
			Name:   n.Name.Name,
			Params: n.ParamNames(),
			Body:   n.Body,
			Env:    env,
		}))
	case *MethodDefStmt:
		err = e.execMethodDef(n, env)
	case *IfStmt:
		return e.execIf(n, env)
	case *WhileStmt:
		return e.execWhile(n, env)
	case *ForStmt:
		return e.execFor(n, env)
	case *ForInStmt:
		return e.execForIn(n, env)
	case *ImportStmt:
		err = e.execImport(n, env)
	case *DelStmt:
		err = e.execDel(n, env)
	case *BlockStmt:
		return e.ExecBlock(n.Statements, env)
	default:
		err = fmt.Errorf("unknown statement type %T", stmt)
	}
	if err != nil {
		return Normal, withPos(err, stmt.Pos())
	}
	return Normal, nil
}

func (e *Evaluator) execAssignment(n *AssignmentStmt, env *Env) error {
	value, err := e.EvalExpr(n.Value, env)
	if err != nil {
		return err
	}
	switch target := n.Target.(type) {
	case *IdentifierExpr:
		return withPos(env.Set(target.Name, value), target.Pos())
	case *IndexExpr:
		receiver, err := e.EvalExpr(target.Receiver, env)
		if err != nil {
			return err
		}
		index, err := e.EvalExpr(target.Index, env)
		if err != nil {
			return err
		}
		return withPos(setIndexed(receiver, index, value), target.Pos())
	case *MemberAccessExpr:
		receiver, err := e.EvalExpr(target.Receiver, env)
		if err != nil {
			return err
		}
		if receiver.Kind != DictKind {
			return TypeErrorf(decl.CodeInvalidIndex, target.Pos(), "property assignment expects a dict, got %s", receiver.TypeName())
		}
		receiver.Dict().Set(target.Member.Name, value)
		return nil
	}
	return Errorf(decl.ErrType, decl.CodeInvalidOperands, n.Pos(), "cannot assign to %s", n.Target)
}

func (e *Evaluator) execMethodDef(n *MethodDefStmt, env *Env) error {
	target, err := env.Lookup(n.Object.Name)
	if err != nil {
		return withPos(err, n.Object.Pos())
	}
	if target.Kind != DictKind {
		return TypeErrorf(decl.CodeInvalidOperands, n.Object.Pos(), "%s is not an object", n.Object.Name)
	}
	target.Dict().Set(n.Name.Name, FunctionValue(&Function{
		Name:   n.Name.Name,
		Params: n.ParamNames(),
		Body:   n.Body,
		Env:    env,
	}))
	return nil
}

func (e *Evaluator) execIf(n *IfStmt, env *Env) (ExecResult, error) {
	cond, err := e.EvalExpr(n.Condition, env)
	if err != nil || !cond.Truthy() {
		return Normal, err
	}
	return e.ExecBlock(n.Body.Statements, e.blockScope(env))
}

func (e *Evaluator) execWhile(n *WhileStmt, env *Env) (ExecResult, error) {
	for {
		cond, err := e.EvalExpr(n.Condition, env)
		if err != nil || !cond.Truthy() {
			return Normal, err
		}
		if res, err := e.ExecBlock(n.Body.Statements, e.blockScope(env)); err != nil || res.Returned {
			return res, err
		}
	}
}

// execFor runs init and step in the enclosing scope and each iteration of
// the body in a fresh child scope.
func (e *Evaluator) execFor(n *ForStmt, env *Env) (ExecResult, error) {
	if res, err := e.ExecStmt(n.Init, env); err != nil || res.Returned {
		return res, err
	}
	for {
		cond, err := e.EvalExpr(n.Condition, env)
		if err != nil || !cond.Truthy() {
			return Normal, err
		}
		if res, err := e.ExecBlock(n.Body.Statements, e.blockScope(env)); err != nil || res.Returned {
			return res, err
		}
		if res, err := e.ExecStmt(n.Step, env); err != nil || res.Returned {
			return res, err
		}
	}
}

// execForIn walks a snapshot of lists and dict keys so the body may mutate
// the container.  The loop variable lives in the enclosing scope.
func (e *Evaluator) execForIn(n *ForInStmt, env *Env) (ExecResult, error) {
	iterable, err := e.EvalExpr(n.Iterable, env)
	if err != nil {
		return Normal, err
	}
	var items []Value
	switch iterable.Kind {
	case ListKind:
		items = append(items, iterable.List().Items...)
	case DictKind:
		for _, k := range iterable.Dict().Keys() {
			items = append(items, StringValue(k))
		}
	case StringKind:
		for _, r := range iterable.Str() {
			items = append(items, StringValue(string(r)))
		}
	default:
		return Normal, TypeErrorf(decl.CodeNotIterable, n.Iterable.Pos(), "cannot iterate over %s", iterable.TypeName())
	}
	for _, item := range items {
		if err := declare(env, n.Variable.Name, item); err != nil {
			return Normal, withPos(err, n.Variable.Pos())
		}
		if res, err := e.ExecBlock(n.Body.Statements, e.blockScope(env)); err != nil || res.Returned {
			return res, err
		}
	}
	return Normal, nil
}

func (e *Evaluator) execDel(n *DelStmt, env *Env) error {
	switch target := n.Target.(type) {
	case *IdentifierExpr:
		env.Remove(target.Name)
		return nil
	case *MemberAccessExpr:
		receiver, err := e.EvalExpr(target.Receiver, env)
		if err != nil {
			return err
		}
		if receiver.Kind == DictKind {
			receiver.Dict().Delete(target.Member.Name)
			return nil
		}
	case *IndexExpr:
		receiver, err := e.EvalExpr(target.Receiver, env)
		if err != nil {
			return err
		}
		index, err := e.EvalExpr(target.Index, env)
		if err != nil {
			return err
		}
		switch receiver.Kind {
		case DictKind:
			if index.Kind != StringKind {
				return TypeErrorf(decl.CodeInvalidIndex, target.Index.Pos(), "dict keys must be strings, got %s", index.TypeName())
			}
			receiver.Dict().Delete(index.Str())
			return nil
		case ListKind:
			if _, err := removeFromList(receiver, index); err != nil {
				return withPos(err, target.Pos())
			}
			return nil
		}
	}
	return TypeErrorf(decl.CodeInvalidDelete, n.Target.Pos(), "cannot delete %s", n.Target)
}

// execImport runs the module source in a fresh base environment and binds
// its `module` value under the last dot separated part of the name.
func (e *Evaluator) execImport(n *ImportStmt, env *Env) error {
	nameVal, err := e.EvalExpr(n.Path, env)
	if err != nil {
		return err
	}
	if nameVal.Kind != StringKind {
		return TypeErrorf(decl.CodeInvalidArgument, n.Path.Pos(), "import path must be a string, got %s", nameVal.TypeName())
	}
	name := nameVal.Str()
	importables := ImportablesFrom(env)
	source, ok := importables[name]
	if !ok {
		return Errorf(decl.ErrImport, decl.CodeUnknownModule, n.Path.Pos(), "module '%s' not found", name)
	}
	for _, active := range e.importing {
		if active == name {
			return Errorf(decl.ErrImport, decl.CodeImportCycle, n.Path.Pos(), "import cycle: %s -> %s", strings.Join(e.importing, " -> "), name)
		}
	}

	Debug("importing module %s", name)
	e.importing = append(e.importing, name)
	moduleEnv, err := e.runSource(source, e.Runtime.BasicEnvironment(importables))
	e.importing = e.importing[:len(e.importing)-1]
	if err != nil {
		return &decl.ModuleError{Module: name, Pos: n.Pos(), Err: err}
	}
	module, ok := moduleEnv.Get("module")
	if !ok {
		return Errorf(decl.ErrImport, decl.CodeMissingExport, n.Path.Pos(), "module '%s' does not define 'module'", name)
	}
	binding := name[strings.LastIndex(name, ".")+1:]
	return withPos(declare(env, binding, module), n.Pos())
}

// runSource parses and runs source in env with this evaluator.
func (e *Evaluator) runSource(source string, env *Env) (*Env, error) {
	prog, err := ParseSource(source)
	if err != nil {
		return env, err
	}
	_, err = e.ExecProgram(prog, env)
	return env, err
}

// ImportablesFrom reads the host module map bound in env.
func ImportablesFrom(env *Env) map[string]string {
	out := map[string]string{}
	v, ok := env.Get(ImportablesKey)
	if !ok || v.Kind != DictKind {
		return out
	}
	d := v.Dict()
	for _, k := range d.Keys() {
		if src, _ := d.Get(k); src.Kind == StringKind {
			out[k] = src.Str()
		}
	}
	return out
}

// --- Expressions ---

// EvalExpr evaluates an expression to a value.
func (e *Evaluator) EvalExpr(expr Expr, env *Env) (Value, error) {
	switch n := expr.(type) {
	case *LiteralExpr:
		return literalValue(n), nil
	case *IdentifierExpr:
		v, err := env.Lookup(n.Name)
		return v, withPos(err, n.Pos())
	case *ListExpr:
		items := make([]Value, 0, len(n.Items))
		for _, item := range n.Items {
			v, err := e.EvalExpr(item, env)
			if err != nil {
				return Null, err
			}
			items = append(items, v)
		}
		return ListValue(&List{Items: items}), nil
	case *DictExpr:
		d := NewDict()
		for _, item := range n.Items {
			v, err := e.EvalExpr(item.Value, env)
			if err != nil {
				return Null, err
			}
			d.Set(item.Key, v)
		}
		return DictValue(d), nil
	case *UnaryExpr:
		operand, err := e.EvalExpr(n.Right, env)
		if err != nil {
			return Null, err
		}
		v, err := ApplyUnaryOp(n.Operator, operand)
		return v, withPos(err, n.Pos())
	case *BinaryExpr:
		left, err := e.EvalExpr(n.Left, env)
		if err != nil {
			return Null, err
		}
		right, err := e.EvalExpr(n.Right, env)
		if err != nil {
			return Null, err
		}
		v, err := ApplyBinaryOp(n.Operator, left, right)
		return v, withPos(err, n.Pos())
	case *CallExpr:
		return e.evalCall(n, env)
	case *IndexExpr:
		receiver, err := e.EvalExpr(n.Receiver, env)
		if err != nil {
			return Null, err
		}
		index, err := e.EvalExpr(n.Index, env)
		if err != nil {
			return Null, err
		}
		v, err := getIndexed(receiver, index)
		return v, withPos(err, n.Pos())
	case *MemberAccessExpr:
		receiver, err := e.EvalExpr(n.Receiver, env)
		if err != nil {
			return Null, err
		}
		v, err := getMember(receiver, n.Member.Name)
		return v, withPos(err, n.Pos())
	}
	return Null, fmt.Errorf("unknown expression type %T", expr)
}

func literalValue(n *LiteralExpr) Value {
	switch n.Kind {
	case BoolLiteral:
		return BoolValue(n.BoolVal)
	case IntLiteral:
		return IntValue(n.IntVal)
	case FloatLiteral:
		return FloatValue(n.FloatVal)
	case StringLiteral:
		return StringValue(n.StrVal)
	}
	return Null
}

// evalCall evaluates the callee then the arguments left to right.  Calling
// a member prepends the receiver to the arguments.
func (e *Evaluator) evalCall(n *CallExpr, env *Env) (Value, error) {
	var callee Value
	var args []Value
	if member, ok := n.Function.(*MemberAccessExpr); ok {
		receiver, err := e.EvalExpr(member.Receiver, env)
		if err != nil {
			return Null, err
		}
		if receiver.Kind != DictKind {
			return Null, TypeErrorf(decl.CodeInvalidIndex, member.Pos(), "property access expects a dict, got %s", receiver.TypeName())
		}
		method, found := receiver.Dict().Get(member.Member.Name)
		if !found || method.Kind != FunctionKind {
			return Null, TypeErrorf(decl.CodeNotCallable, member.Pos(), "property '%s' is not a function", member.Member.Name)
		}
		callee = method
		args = append(args, receiver)
	} else {
		var err error
		if callee, err = e.EvalExpr(n.Function, env); err != nil {
			return Null, err
		}
	}
	for _, arg := range n.ArgList {
		v, err := e.EvalExpr(arg, env)
		if err != nil {
			return Null, err
		}
		args = append(args, v)
	}
	out, err := e.Call(callee, args, &CallContext{Evaluator: e, Env: env, Pos: n.Pos()})
	return out, withPos(err, n.Pos())
}

// Call invokes a function value.  Missing arguments are bound to null and
// extra ones are ignored.
func (e *Evaluator) Call(callee Value, args []Value, call *CallContext) (Value, error) {
	if callee.Kind != FunctionKind {
		return Null, TypeErrorf(decl.CodeNotCallable, call.Pos, "%s is not callable", callee.TypeName())
	}
	fn := callee.Function()
	if fn.IsNative() {
		Debug("calling native %s with %d args", fn.Name, len(args))
		return fn.Native(call, args)
	}

	if limit := e.Runtime.MaxDepth; limit > 0 && e.depth >= limit {
		return Null, Errorf(decl.ErrRecursion, decl.CodeMaxDepthExceeded, call.Pos, "maximum call depth %d exceeded calling %s", limit, fn.Name)
	}
	e.depth++
	defer func() { e.depth-- }()

	local := NewEnv(fn.Env)
	for i, param := range fn.Params {
		arg := Null
		if i < len(args) {
			arg = args[i]
		}
		local.SetHere(param, arg)
	}
	res, err := e.ExecBlock(fn.Body.Statements, local)
	if err != nil || !res.Returned {
		return Null, err
	}
	return res.Value, nil
}

func getIndexed(receiver, index Value) (Value, error) {
	switch receiver.Kind {
	case ListKind:
		i, ok := listIndex(index)
		if !ok {
			return Null, invalidIndex("list index must be an integer, got %s", index.TypeName())
		}
		v, ok := receiver.List().Get(i)
		if !ok {
			return Null, invalidIndex("list index %d out of range (len %d)", i, receiver.List().Len())
		}
		return v, nil
	case DictKind:
		if index.Kind != StringKind {
			return Null, invalidIndex("dict keys must be strings, got %s", index.TypeName())
		}
		return getMember(receiver, index.Str())
	}
	return Null, invalidIndex("indexing only supported on list and dict, not %s", receiver.TypeName())
}

func setIndexed(receiver, index, value Value) error {
	switch receiver.Kind {
	case ListKind:
		i, ok := listIndex(index)
		if !ok {
			return invalidIndex("list index must be an integer, got %s", index.TypeName())
		}
		if !receiver.List().Set(i, value) {
			return invalidIndex("list index %d out of range (len %d)", i, receiver.List().Len())
		}
		return nil
	case DictKind:
		if index.Kind != StringKind {
			return invalidIndex("dict keys must be strings, got %s", index.TypeName())
		}
		receiver.Dict().Set(index.Str(), value)
		return nil
	}
	return invalidIndex("index assignment only supported on list and dict, not %s", receiver.TypeName())
}

func getMember(receiver Value, name string) (Value, error) {
	if receiver.Kind != DictKind {
		return Null, invalidIndex("property access expects a dict, got %s", receiver.TypeName())
	}
	v, ok := receiver.Dict().Get(name)
	if !ok {
		return Null, invalidIndex("key '%s' not found", name)
	}
	return v, nil
}

// listIndex accepts Int and Bool indexes only.
func listIndex(index Value) (int64, bool) {
	if index.Kind != IntKind && index.Kind != BoolKind {
		return 0, false
	}
	return index.AsInt()
}
