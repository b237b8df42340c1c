package parser

import (
	"strconv"
	"strings"
)

// Helper to combine position info
func newNodeInfo(start, end Location) NodeInfo {
	return NodeInfo{StartPos: start, StopPos: end}
}

// tokenEnd is the location just past the last character of tok.
func tokenEnd(tok Token) Location {
	line, col := tok.Line, tok.Col
	for _, r := range tok.Text {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Location{Pos: tok.Pos + len(tok.Text), Line: line, Col: col}
}

// Helper function to create an IdentifierExpr node
func newIdentifierExpr(tok Token) *IdentifierExpr {
	return &IdentifierExpr{
		ExprBase: ExprBase{NodeInfo: newNodeInfo(tok.Location(), tokenEnd(tok))},
		Name:     tok.Text,
	}
}

// newLiteralExpr builds the literal for a NUMBER, STRING, true, false or
// null token.  Integers too large for int64 are kept as floats.
func newLiteralExpr(tok Token) *LiteralExpr {
	out := &LiteralExpr{
		ExprBase: ExprBase{NodeInfo: newNodeInfo(tok.Location(), tokenEnd(tok))},
		Text:     tok.Text,
	}
	switch tok.Kind {
	case NUMBER:
		if !strings.Contains(tok.Text, ".") {
			if v, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
				out.Kind = IntLiteral
				out.IntVal = v
				return out
			}
		}
		// The lexer only produces digit runs so this cannot fail short of
		// overflowing to Inf which ParseFloat reports but still returns.
		out.Kind = FloatLiteral
		out.FloatVal, _ = strconv.ParseFloat(tok.Text, 64)
	case STRING:
		out.Kind = StringLiteral
		out.StrVal = Unquote(tok.Text)
	case TRUE, FALSE:
		out.Kind = BoolLiteral
		out.BoolVal = tok.Kind == TRUE
	default:
		out.Kind = NullLiteral
	}
	return out
}

// quoteOp renders an operator the way it is listed in error messages.
func quoteOp(text string) string {
	return strconv.Quote(text)
}
