package parser

import "github.com/panyam/ros/decl"

type Location = decl.Location
type NodeInfo = decl.NodeInfo
type Node = decl.Node
type Program = decl.Program

type Expr = decl.Expr
type ExprBase = decl.ExprBase
type LiteralExpr = decl.LiteralExpr
type IdentifierExpr = decl.IdentifierExpr
type ListExpr = decl.ListExpr
type DictExpr = decl.DictExpr
type DictItem = decl.DictItem
type UnaryExpr = decl.UnaryExpr
type BinaryExpr = decl.BinaryExpr
type CallExpr = decl.CallExpr
type IndexExpr = decl.IndexExpr
type MemberAccessExpr = decl.MemberAccessExpr

type Stmt = decl.Stmt
type StmtBase = decl.StmtBase
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

type ParseError = decl.ParseError

var (
	ErrLex   = decl.ErrLex
	ErrParse = decl.ErrParse
	Errorf   = decl.Errorf

	NewParseError = decl.NewParseError
	IsAssignable  = decl.IsAssignable
)

const (
	NullLiteral   = decl.NullLiteral
	BoolLiteral   = decl.BoolLiteral
	IntLiteral    = decl.IntLiteral
	FloatLiteral  = decl.FloatLiteral
	StringLiteral = decl.StringLiteral
)

const (
	CodeUnexpectedCharacter = decl.CodeUnexpectedCharacter
	CodeInvalidAssignment   = decl.CodeInvalidAssignment
)
