package runtime

import (
	"github.com/panyam/ros/decl"
	"github.com/panyam/ros/parser"
)

type Env = decl.Env[Value]
type Location = decl.Location
type Node = decl.Node
type Program = decl.Program

type Expr = decl.Expr
type LiteralExpr = decl.LiteralExpr
type IdentifierExpr = decl.IdentifierExpr
type ListExpr = decl.ListExpr
type DictExpr = decl.DictExpr
type UnaryExpr = decl.UnaryExpr
type BinaryExpr = decl.BinaryExpr
type CallExpr = decl.CallExpr
type IndexExpr = decl.IndexExpr
type MemberAccessExpr = decl.MemberAccessExpr

type Stmt = decl.Stmt
type BlockStmt = decl.BlockStmt
type ExprStmt = decl.ExprStmt
type AssignmentStmt = decl.AssignmentStmt
type DefStmt = decl.DefStmt
type MethodDefStmt = decl.MethodDefStmt
type ReturnStmt = decl.ReturnStmt
type WhileStmt = decl.WhileStmt
type IfStmt = decl.IfStmt
type ForStmt = decl.ForStmt
type ForInStmt = decl.ForInStmt
type ImportStmt = decl.ImportStmt
type DelStmt = decl.DelStmt

var (
	NewEnv      = decl.NewEnv[Value]
	Errorf      = decl.Errorf
	NameErrorf  = decl.NameErrorf
	TypeErrorf  = decl.TypeErrorf
	ParseSource = parser.Parse
)

const (
	NullLiteral   = decl.NullLiteral
	BoolLiteral   = decl.BoolLiteral
	IntLiteral    = decl.IntLiteral
	FloatLiteral  = decl.FloatLiteral
	StringLiteral = decl.StringLiteral
)
