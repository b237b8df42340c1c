package parser

import (
	gfn "github.com/panyam/goutils/fn"
)

// LLParser is a recursive descent parser for statements that hands
// expressions over to a Pratt (binding power) loop.
type LLParser struct {
	tokens []Token
	next   int
	last   Token

	Precedencer Precedencer
}

func NewLLParser(tokens []Token) *LLParser {
	return &LLParser{tokens: tokens, Precedencer: DefaultPrecedencer{}}
}

// Parse tokenizes and parses a complete source text.
func Parse(source string) (*Program, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewLLParser(tokens).ParseProgram()
}

// --- Token stream helpers ---

// PeekToken returns the next token without consuming it.  Past the end of
// the stream it keeps returning an EOF token.
func (p *LLParser) PeekToken() Token {
	if p.next < len(p.tokens) {
		return p.tokens[p.next]
	}
	out := Token{Kind: EOF}
	if len(p.tokens) > 0 {
		end := tokenEnd(p.tokens[len(p.tokens)-1])
		out.Pos, out.Line, out.Col = end.Pos, end.Line, end.Col
	}
	return out
}

// Advance consumes and returns the next token.
func (p *LLParser) Advance() Token {
	tok := p.PeekToken()
	if p.next < len(p.tokens) {
		p.next++
	}
	p.last = tok
	return tok
}

// lastEnd is the location right after the most recently consumed token.
func (p *LLParser) lastEnd() Location {
	return tokenEnd(p.last)
}

// Match consumes the next token if it is of the given kind (and text).
func (p *LLParser) Match(kind TokenKind, texts ...string) (Token, bool) {
	if tok := p.PeekToken(); tok.Is(kind, texts...) {
		return p.Advance(), true
	}
	return Token{}, false
}

// Expect checks if the current peeked token is of the given kind (and one of
// the given texts).  It does NOT advance.
func (p *LLParser) Expect(kind TokenKind, texts ...string) (Token, error) {
	tok := p.PeekToken()
	if tok.Is(kind, texts...) {
		return tok, nil
	}
	expected := []string{string(kind)}
	if len(texts) > 0 {
		expected = gfn.Map(texts, quoteOp)
	}
	return tok, p.errorAt(tok, expected...)
}

// AdvanceIf expects the given token and advances if found.
func (p *LLParser) AdvanceIf(kind TokenKind, texts ...string) (tok Token, err error) {
	if tok, err = p.Expect(kind, texts...); err == nil {
		p.Advance()
	}
	return
}

// errorAt reports that tok was found where one of expected was required.
func (p *LLParser) errorAt(tok Token, expected ...string) error {
	return NewParseError(tok.Location(), expected, string(tok.Kind), tok.Text)
}

// skipSeparators consumes newlines and semicolons.
func (p *LLParser) skipSeparators() {
	for {
		if _, ok := p.Match(NL); ok {
			continue
		}
		if _, ok := p.Match(OP, ";"); ok {
			continue
		}
		return
	}
}

func (p *LLParser) skipNewlines() {
	for {
		if _, ok := p.Match(NL); !ok {
			return
		}
	}
}

// --- Statements ---

// ParseProgram parses a top level block.  The program ends at the end of the
// input; a closing `end` is also accepted.
func (p *LLParser) ParseProgram() (*Program, error) {
	start := p.PeekToken().Location()
	stmts, err := p.ParseBlock(true)
	if err != nil {
		return nil, err
	}
	if _, ok := p.Match(END); ok {
		p.skipSeparators()
		if tok := p.PeekToken(); tok.Kind != EOF {
			return nil, p.errorAt(tok, string(EOF))
		}
	}
	return &Program{NodeInfo: newNodeInfo(start, p.lastEnd()), Statements: stmts}, nil
}

// ParseBlock parses statements up to (but not including) the closing `end`.
// When topLevel is set the end of input also closes the block; otherwise
// reaching it is an error.
func (p *LLParser) ParseBlock(topLevel bool) (stmts []Stmt, err error) {
	p.skipSeparators()
	for {
		tok := p.PeekToken()
		if tok.Kind == END {
			return stmts, nil
		}
		if tok.Kind == EOF {
			if topLevel {
				return stmts, nil
			}
			return nil, p.errorAt(tok, string(END))
		}
		stmt, err := p.ParseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		p.skipSeparators()
	}
}

// parseBody parses a block along with its closing `end`.
func (p *LLParser) parseBody() (*BlockStmt, error) {
	start := p.PeekToken().Location()
	stmts, err := p.ParseBlock(false)
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(END); err != nil {
		return nil, err
	}
	return &BlockStmt{StmtBase: StmtBase{NodeInfo: newNodeInfo(start, p.lastEnd())}, Statements: stmts}, nil
}

// ParseStmt parses a single statement.
//
// Grammar:
//
//	Stmt := DefStmt | ReturnStmt | WhileStmt | IfStmt | ImportStmt
//	      | DelStmt | ForStmt | AssignmentStmt | ExprStmt
func (p *LLParser) ParseStmt() (Stmt, error) {
	tok := p.PeekToken()
	switch {
	case tok.Kind == DEF:
		return p.ParseDefStmt()
	case tok.Kind == RETURN:
		return p.ParseReturnStmt()
	case tok.Kind == WHILE:
		return p.ParseWhileStmt()
	case tok.Kind == IF:
		return p.ParseIfStmt()
	case tok.Kind == IMPORT:
		return p.ParseImportStmt()
	case tok.Kind == FOR:
		return p.ParseForStmt()
	case tok.Is(ID, "del"):
		return p.ParseDelStmt()
	}
	return p.ParseAssignmentOrExprStmt()
}

// ParseAssignmentOrExprStmt parses an expression and, if followed by `=`,
// the value being assigned to it.
//
// Grammar:
//
//	AssignmentStmt := Expr "=" Expr
//	ExprStmt := Expr
func (p *LLParser) ParseAssignmentOrExprStmt() (Stmt, error) {
	start := p.PeekToken().Location()
	lhs, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	eqTok, isAssign := p.Match(OP, "=")
	if !isAssign {
		return &ExprStmt{StmtBase: StmtBase{NodeInfo: newNodeInfo(start, p.lastEnd())}, Expression: lhs}, nil
	}
	if !IsAssignable(lhs) {
		return nil, &ParseError{
			Code:    CodeInvalidAssignment,
			Msg:     "cannot assign to " + lhs.String(),
			Pos:     eqTok.Location(),
			Got:     string(eqTok.Kind),
			GotText: eqTok.Text,
		}
	}
	value, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &AssignmentStmt{
		StmtBase: StmtBase{NodeInfo: newNodeInfo(start, p.lastEnd())},
		Target:   lhs,
		Value:    value,
	}, nil
}

// ParseIdentifier extracts a single identifier
func (p *LLParser) ParseIdentifier() (*IdentifierExpr, error) {
	tok, err := p.AdvanceIf(ID)
	if err != nil {
		return nil, err
	}
	return newIdentifierExpr(tok), nil
}

// ParseParamList parses the parenthesized parameter names of a def.
//
// Grammar:
//
//	ParamList := "(" ( ID ( "," ID ) * ) ? ")"
func (p *LLParser) ParseParamList() (params []*IdentifierExpr, err error) {
	if _, err = p.AdvanceIf(OP, "("); err != nil {
		return
	}
	if _, ok := p.Match(OP, ")"); ok {
		return
	}
	for {
		param, err := p.ParseIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if _, ok := p.Match(OP, ")"); ok {
			return params, nil
		}
		if _, err = p.AdvanceIf(OP, ",", ")"); err != nil {
			return nil, err
		}
	}
}

// ParseDefStmt parses a function or method definition.
//
// Grammar:
//
//	DefStmt := "def" ID ParamList Block "end"
//	MethodDefStmt := "def" ID "." ID ParamList Block "end"
func (p *LLParser) ParseDefStmt() (Stmt, error) {
	defTok, err := p.AdvanceIf(DEF)
	if err != nil {
		return nil, err
	}
	name, err := p.ParseIdentifier()
	if err != nil {
		return nil, err
	}
	var object *IdentifierExpr
	if _, ok := p.Match(OP, "."); ok {
		object = name
		if name, err = p.ParseIdentifier(); err != nil {
			return nil, err
		}
	} else if _, err = p.Expect(OP, "(", "."); err != nil {
		return nil, err
	}
	params, err := p.ParseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	base := StmtBase{NodeInfo: newNodeInfo(defTok.Location(), p.lastEnd())}
	if object != nil {
		return &MethodDefStmt{StmtBase: base, Object: object, Name: name, Params: params, Body: body}, nil
	}
	return &DefStmt{StmtBase: base, Name: name, Params: params, Body: body}, nil
}

// ParseReturnStmt parses a return statement.
//
// Grammar:
//
//	ReturnStmt := "return" Expr
func (p *LLParser) ParseReturnStmt() (Stmt, error) {
	retTok, err := p.AdvanceIf(RETURN)
	if err != nil {
		return nil, err
	}
	value, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &ReturnStmt{StmtBase: StmtBase{NodeInfo: newNodeInfo(retTok.Location(), p.lastEnd())}, ReturnValue: value}, nil
}

// ParseWhileStmt parses a while loop.
//
// Grammar:
//
//	WhileStmt := "while" "(" Expr ")" Block "end"
func (p *LLParser) ParseWhileStmt() (Stmt, error) {
	whileTok, err := p.AdvanceIf(WHILE)
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(OP, "("); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(OP, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{
		StmtBase:  StmtBase{NodeInfo: newNodeInfo(whileTok.Location(), p.lastEnd())},
		Condition: cond,
		Body:      body,
	}, nil
}

// ParseIfStmt parses a conditional.
//
// Grammar:
//
//	IfStmt := "if" Expr Block "end"
func (p *LLParser) ParseIfStmt() (Stmt, error) {
	ifTok, err := p.AdvanceIf(IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &IfStmt{
		StmtBase:  StmtBase{NodeInfo: newNodeInfo(ifTok.Location(), p.lastEnd())},
		Condition: cond,
		Body:      body,
	}, nil
}

// ParseImportStmt parses an import.
//
// Grammar:
//
//	ImportStmt := "import" Expr
func (p *LLParser) ParseImportStmt() (Stmt, error) {
	importTok, err := p.AdvanceIf(IMPORT)
	if err != nil {
		return nil, err
	}
	path, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &ImportStmt{StmtBase: StmtBase{NodeInfo: newNodeInfo(importTok.Location(), p.lastEnd())}, Path: path}, nil
}

// ParseDelStmt parses a binding removal.
//
// Grammar:
//
//	DelStmt := "del" Expr
func (p *LLParser) ParseDelStmt() (Stmt, error) {
	delTok, err := p.AdvanceIf(ID, "del")
	if err != nil {
		return nil, err
	}
	target, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &DelStmt{StmtBase: StmtBase{NodeInfo: newNodeInfo(delTok.Location(), p.lastEnd())}, Target: target}, nil
}

// ParseForStmt parses both loop forms.
//
// Grammar:
//
//	ForStmt := "for" "(" Stmt ";" Expr ";" Stmt ")" Block "end"
//	ForInStmt := "for" ID "in" Expr Block "end"
func (p *LLParser) ParseForStmt() (Stmt, error) {
	forTok, err := p.AdvanceIf(FOR)
	if err != nil {
		return nil, err
	}
	if _, ok := p.Match(OP, "("); !ok {
		return p.parseForIn(forTok)
	}

	init, err := p.ParseStmt()
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(OP, ";"); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(OP, ";"); err != nil {
		return nil, err
	}
	step, err := p.ParseStmt()
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(OP, ")"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ForStmt{
		StmtBase:  StmtBase{NodeInfo: newNodeInfo(forTok.Location(), p.lastEnd())},
		Init:      init,
		Condition: cond,
		Step:      step,
		Body:      body,
	}, nil
}

func (p *LLParser) parseForIn(forTok Token) (Stmt, error) {
	if _, err := p.Expect(ID); err != nil {
		// Either form could have been meant here
		return nil, p.errorAt(p.PeekToken(), string(ID), quoteOp("("))
	}
	variable, err := p.ParseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err = p.AdvanceIf(IN); err != nil {
		return nil, err
	}
	iterable, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ForInStmt{
		StmtBase: StmtBase{NodeInfo: newNodeInfo(forTok.Location(), p.lastEnd())},
		Variable: variable,
		Iterable: iterable,
		Body:     body,
	}, nil
}

// --- Expressions ---

// ParseExpression parses an expression at the lowest binding power.
func (p *LLParser) ParseExpression() (Expr, error) {
	return p.parseExpression(BPNone)
}

// parseExpression is the Pratt loop: parse a prefix form and keep folding
// infix/postfix operators into it while they bind tighter than rbp.
func (p *LLParser) parseExpression(rbp int) (Expr, error) {
	left, err := p.parsePrefix(p.Advance())
	if err != nil {
		return nil, err
	}
	for {
		tok := p.PeekToken()
		if rbp >= p.bindingPower(tok) {
			return left, nil
		}
		p.Advance()
		if left, err = p.parseInfix(tok, left); err != nil {
			return nil, err
		}
	}
}

func (p *LLParser) bindingPower(tok Token) int {
	if tok.Kind != OP {
		return BPNone
	}
	return p.Precedencer.PrecedenceFor(tok.Text)
}

var prefixStarts = []string{
	string(NUMBER), string(STRING), string(ID), string(TRUE), string(FALSE), string(NULL),
	`"("`, `"["`, `"{"`, `"+"`, `"-"`,
}

// parsePrefix handles the forms that can start an expression.
//
// Grammar:
//
//	Primary := NUMBER | STRING | "true" | "false" | "null" | ID
//	         | "(" Expr ")" | ListLiteral | DictLiteral
//	         | ( "+" | "-" ) Expr
func (p *LLParser) parsePrefix(tok Token) (Expr, error) {
	switch tok.Kind {
	case NUMBER, STRING, TRUE, FALSE, NULL:
		return newLiteralExpr(tok), nil
	case ID:
		return newIdentifierExpr(tok), nil
	case OP:
		switch tok.Text {
		case "(":
			inner, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			if _, err = p.AdvanceIf(OP, ")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			return p.parseListLiteral(tok)
		case "{":
			return p.parseDictLiteral(tok)
		case "+", "-":
			operand, err := p.parseExpression(BPPrefix)
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{
				ExprBase: ExprBase{NodeInfo: newNodeInfo(tok.Location(), p.lastEnd())},
				Operator: tok.Text,
				Right:    operand,
			}, nil
		}
	}
	return nil, p.errorAt(tok, prefixStarts...)
}

// parseInfix handles the postfix forms and binary operators once their
// operator token has been consumed.
func (p *LLParser) parseInfix(tok Token, left Expr) (Expr, error) {
	start := left.Pos()
	switch tok.Text {
	case "(":
		args, err := p.ParseArgList(")")
		if err != nil {
			return nil, err
		}
		return &CallExpr{ExprBase: ExprBase{NodeInfo: newNodeInfo(start, p.lastEnd())}, Function: left, ArgList: args}, nil
	case "[":
		p.skipNewlines()
		index, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err = p.AdvanceIf(OP, "]"); err != nil {
			return nil, err
		}
		return &IndexExpr{ExprBase: ExprBase{NodeInfo: newNodeInfo(start, p.lastEnd())}, Receiver: left, Index: index}, nil
	case ".":
		member, err := p.ParseIdentifier()
		if err != nil {
			return nil, err
		}
		return &MemberAccessExpr{ExprBase: ExprBase{NodeInfo: newNodeInfo(start, p.lastEnd())}, Receiver: left, Member: member}, nil
	}
	right, err := p.parseExpression(p.bindingPower(tok))
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{
		ExprBase: ExprBase{NodeInfo: newNodeInfo(start, p.lastEnd())},
		Left:     left,
		Operator: tok.Text,
		Right:    right,
	}, nil
}

// ParseArgList parses comma separated expressions up to and including the
// closing token.  The opening token must already be consumed.  Newlines
// between items are ignored.
//
// Grammar:
//
//	ArgList := ( Expr ( "," Expr ) * ) ? closing
func (p *LLParser) ParseArgList(closing string) (out []Expr, err error) {
	p.skipNewlines()
	if _, ok := p.Match(OP, closing); ok {
		return
	}
	for {
		p.skipNewlines()
		arg, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
		p.skipNewlines()
		if _, ok := p.Match(OP, closing); ok {
			return out, nil
		}
		if _, err = p.AdvanceIf(OP, ",", closing); err != nil {
			return nil, err
		}
	}
}

// parseListLiteral parses the items after an opening "[".
//
// Grammar:
//
//	ListLiteral := "[" ArgList "]"
func (p *LLParser) parseListLiteral(open Token) (Expr, error) {
	items, err := p.ParseArgList("]")
	if err != nil {
		return nil, err
	}
	return &ListExpr{ExprBase: ExprBase{NodeInfo: newNodeInfo(open.Location(), p.lastEnd())}, Items: items}, nil
}

// parseDictLiteral parses the entries after an opening "{".  Keys are
// identifiers or string literals and always become strings.
//
// Grammar:
//
//	DictLiteral := "{" ( DictItem ( "," DictItem ) * ) ? "}"
//	DictItem := ( ID | STRING ) ":" Expr
func (p *LLParser) parseDictLiteral(open Token) (Expr, error) {
	out := &DictExpr{}
	p.skipNewlines()
	if _, ok := p.Match(OP, "}"); !ok {
		for {
			p.skipNewlines()
			keyTok := p.PeekToken()
			item := &DictItem{KeyPos: keyTok.Location()}
			switch keyTok.Kind {
			case ID:
				item.Key = keyTok.Text
			case STRING:
				item.Key = Unquote(keyTok.Text)
			default:
				return nil, p.errorAt(keyTok, string(ID), string(STRING))
			}
			p.Advance()
			if _, err := p.AdvanceIf(OP, ":"); err != nil {
				return nil, err
			}
			p.skipNewlines()
			value, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			item.Value = value
			out.Items = append(out.Items, item)
			p.skipNewlines()
			if _, ok := p.Match(OP, "}"); ok {
				break
			}
			if _, err = p.AdvanceIf(OP, ",", "}"); err != nil {
				return nil, err
			}
		}
	}
	out.NodeInfo = newNodeInfo(open.Location(), p.lastEnd())
	return out, nil
}
