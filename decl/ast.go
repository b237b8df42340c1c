package decl

import (
	"fmt"
	"strings"
)

// --- Interfaces ---

// Location is a point in the source text.
type Location struct {
	Pos  int // Byte offset from the start of the input
	Line int // 1-based line
	Col  int // 1-based column (rune based)
}

func (l Location) LineColStr() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

// IsValid reports whether the location came from a real token.
func (l Location) IsValid() bool {
	return l.Line > 0
}

// Node represents any node in the Abstract Syntax Tree.
type Node interface {
	Pos() Location  // Starting position (for error reporting)
	End() Location  // Ending position
	String() string // String representation for debugging/printing
	PrettyPrint(cp CodePrinter)
}

// --- Base Struct ---

// NodeInfo embeddable struct for position tracking.
type NodeInfo struct{ StartPos, StopPos Location }

func NewNodeInfo(start, stop Location) NodeInfo {
	return NodeInfo{StartPos: start, StopPos: stop}
}

func (n *NodeInfo) Pos() Location { return n.StartPos }
func (n *NodeInfo) End() Location { return n.StopPos }

// --- Top Level ---

// Program is the root of a parsed source text.  Unlike a BlockStmt it is
// terminated by the end of input instead of an `end` keyword.
type Program struct {
	NodeInfo
	Statements []Stmt
}

func (p *Program) String() string {
	var lines []string
	for _, s := range p.Statements {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

func (p *Program) PrettyPrint(cp CodePrinter) {
	for _, s := range p.Statements {
		s.PrettyPrint(cp)
		cp.Println("")
	}
}
