package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// eof is returned by peek once the input is exhausted.
const eof = 0

// TokenKind is the closed set of token categories.  Keywords use their own
// text as the kind.
type TokenKind string

const (
	NL     TokenKind = "NL"
	WS     TokenKind = "WS"
	NUMBER TokenKind = "NUMBER"
	STRING TokenKind = "STRING"
	ID     TokenKind = "ID"
	OP     TokenKind = "OP"
	EOF    TokenKind = "EOF"

	DEF    TokenKind = "def"
	RETURN TokenKind = "return"
	END    TokenKind = "end"
	WHILE  TokenKind = "while"
	FOR    TokenKind = "for"
	IN     TokenKind = "in"
	TRUE   TokenKind = "true"
	FALSE  TokenKind = "false"
	NULL   TokenKind = "null"
	IF     TokenKind = "if"
	IMPORT TokenKind = "import"
)

var keywords = map[string]TokenKind{
	"def":    DEF,
	"return": RETURN,
	"end":    END,
	"while":  WHILE,
	"for":    FOR,
	"in":     IN,
	"true":   TRUE,
	"false":  FALSE,
	"null":   NULL,
	"if":     IF,
	"import": IMPORT,
}

// Multi character operators are tried before their single character
// prefixes.
var (
	doubleCharOps = []string{"==", "!=", "<=", ">="}
	singleCharOps = "+-*/<>=.,:;()[]{}"
)

// IsKeyword reports whether the kind is one of the reserved words.
func (k TokenKind) IsKeyword() bool {
	_, ok := keywords[string(k)]
	return ok
}

// Token is a single lexeme.  Tokens are values and never modified once the
// lexer hands them out.
type Token struct {
	Kind TokenKind
	Text string // Raw text.  Strings keep their quotes and escapes.
	Line int
	Col  int
	Pos  int // Byte offset of the first character
}

func (t Token) Location() Location {
	return Location{Pos: t.Pos, Line: t.Line, Col: t.Col}
}

// Is reports whether the token is of the given kind and (for operators and
// identifiers) has one of the given texts.
func (t Token) Is(kind TokenKind, texts ...string) bool {
	if t.Kind != kind {
		return false
	}
	if len(texts) == 0 {
		return true
	}
	for _, text := range texts {
		if t.Text == text {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q@%d:%d)", t.Kind, t.Text, t.Line, t.Col)
}

// Lexer structure
type Lexer struct {
	lookaheadRunes  []rune
	lookaheadWidths []int
	reader          *bufio.Reader
	buf             bytes.Buffer // Temporary buffer for scanned text
	pos             int          // Current byte offset from the beginning of the input
	lastError       error

	// Position tracking for the current token
	tokenStartPos  int    // Byte offset where the current token started
	tokenStartLine int    // Line number (1-based) where the current token started
	tokenStartCol  int    // Column number (rune-based, 1-based) where the current token started
	tokenText      string // Raw text of the current token

	// Current line and column (rune-based) in the input
	line int
	col  int
}

// NewLexer creates a new lexer instance
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(r),
		pos:    0,
		line:   1,
		col:    1,
	}
}

// Tokenize lexes the whole source into a token slice terminated by an EOF
// token.
func Tokenize(source string) (out []Token, err error) {
	l := NewLexer(strings.NewReader(source))
	for {
		tok, err := l.Lex()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

// Error records a lex error at the start of the current token.
func (l *Lexer) Error(format string, args ...any) error {
	l.lastError = Errorf(ErrLex, CodeUnexpectedCharacter, l.tokenStart(), format, args...)
	return l.lastError
}

// LastError returns the error that stopped the lexer, if any.
func (l *Lexer) LastError() error {
	return l.lastError
}

// Pos returns the start byte offset of the most recently lexed token.
func (l *Lexer) Pos() int {
	return l.tokenStartPos
}

// End returns the end byte offset (current position) after lexing the most recent token.
func (l *Lexer) End() int {
	return l.pos
}

// Text returns the raw text of the most recently lexed token.
func (l *Lexer) Text() string {
	return l.tokenText
}

// Position returns the line and column where the most recent token started.
func (l *Lexer) Position() (line, col int) {
	return l.tokenStartLine, l.tokenStartCol
}

func (l *Lexer) tokenStart() Location {
	return Location{Pos: l.tokenStartPos, Line: l.tokenStartLine, Col: l.tokenStartCol}
}

// --- Rune Reading Helpers (with line/col tracking) ---
func (l *Lexer) read() (r rune, width int) {
	if l.peek() == eof {
		return eof, 0
	}
	r, width = l.lookaheadRunes[0], l.lookaheadWidths[0]
	l.lookaheadRunes, l.lookaheadWidths = l.lookaheadRunes[1:], l.lookaheadWidths[1:]
	l.updatePosition(r, width)
	l.buf.WriteRune(r)
	return r, width
}

func (l *Lexer) updatePosition(r rune, width int) {
	l.pos += width
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) peekN(nthchar int) rune {
	l.ensureLookAhead(nthchar + 1)
	if nthchar >= len(l.lookaheadRunes) {
		return eof
	}
	return l.lookaheadRunes[nthchar]
}

func (l *Lexer) peek() rune {
	return l.peekN(0)
}

func (l *Lexer) ensureLookAhead(numchars int) int {
	for len(l.lookaheadRunes) < numchars {
		r, width, err := l.reader.ReadRune()
		if err != nil {
			break
		}
		l.lookaheadRunes = append(l.lookaheadRunes, r)
		l.lookaheadWidths = append(l.lookaheadWidths, width)
	}
	return len(l.lookaheadRunes)
}

func (l *Lexer) hasPrefix(prefix string) bool {
	nchars := len(prefix)
	if l.ensureLookAhead(nchars) < nchars {
		return false
	}
	for i := range nchars {
		if l.lookaheadRunes[i] != rune(prefix[i]) {
			return false
		}
	}
	return true
}

// --- Character classes ---
func isDigit(r rune) bool      { return r >= '0' && r <= '9' }
func isIdentStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isIdentPart(r rune) bool  { return isIdentStart(r) || isDigit(r) }

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v'
}

// --- Scanning Functions ---

// skipWhitespace consumes a run of blanks.  A '\r' that starts a "\r\n"
// pair is left for the newline token.
func (l *Lexer) skipWhitespace() {
	for r := l.peek(); isSpace(r); r = l.peek() {
		if r == '\r' && l.peekN(1) == '\n' {
			return
		}
		l.read()
	}
}

func (l *Lexer) scanNewline() TokenKind {
	if l.peek() == '\r' {
		l.read()
	}
	l.read()
	return NL
}

func (l *Lexer) scanIdentifierOrKeyword() TokenKind {
	for r := l.peek(); r != eof && isIdentPart(r); r = l.peek() {
		l.read()
	}
	if kw, ok := keywords[l.buf.String()]; ok {
		return kw
	}
	return ID
}

// scanNumber reads `\d+\.\d+` or `\d+`.  A '.' not followed by a digit is
// left alone so `1.` lexes as a number followed by an operator.
func (l *Lexer) scanNumber() TokenKind {
	hasDecimal := false
	for r := l.peek(); r != eof; r = l.peek() {
		if isDigit(r) {
			l.read()
		} else if r == '.' && !hasDecimal && isDigit(l.peekN(1)) {
			l.read()
			hasDecimal = true
		} else {
			break
		}
	}
	return NUMBER
}

// scanString reads a double quoted string keeping its raw text.  Escapes are
// only skipped over here; DecodeEscapes turns them into characters.
func (l *Lexer) scanString() (TokenKind, error) {
	l.read() // Consume opening '"'
	for {
		r, _ := l.read()
		switch r {
		case eof:
			return EOF, l.Error("unterminated string literal")
		case '"':
			return STRING, nil
		case '\\':
			if esc, _ := l.read(); esc == eof {
				return EOF, l.Error("unterminated string literal after escape")
			}
		}
	}
}

func (l *Lexer) scanOperator() (TokenKind, error) {
	for _, op := range doubleCharOps {
		if l.hasPrefix(op) {
			l.read()
			l.read()
			return OP, nil
		}
	}
	r := l.peek()
	if strings.ContainsRune(singleCharOps, r) {
		l.read()
		return OP, nil
	}
	l.tokenText = string(r)
	return EOF, l.Error("unexpected character %q", r)
}

// Lex returns the next token.  Whitespace is consumed (advancing the column)
// but never returned.  Once the input is exhausted every call returns an EOF
// token.
func (l *Lexer) Lex() (tok Token, err error) {
	if l.lastError != nil {
		return tok, l.lastError
	}
	l.skipWhitespace()

	l.buf.Reset()
	l.tokenStartPos = l.pos
	l.tokenStartLine = l.line
	l.tokenStartCol = l.col
	l.tokenText = "" // Reset for current token

	var kind TokenKind
	r := l.peek()
	switch {
	case r == eof:
		kind = EOF
	case r == '\n' || (r == '\r' && l.peekN(1) == '\n'):
		kind = l.scanNewline()
	case isDigit(r):
		kind = l.scanNumber()
	case r == '"':
		kind, err = l.scanString()
	case isIdentStart(r):
		kind = l.scanIdentifierOrKeyword()
	default:
		kind, err = l.scanOperator()
	}
	if err != nil {
		return tok, err
	}
	l.tokenText = l.buf.String()
	return Token{
		Kind: kind,
		Text: l.tokenText,
		Line: l.tokenStartLine,
		Col:  l.tokenStartCol,
		Pos:  l.tokenStartPos,
	}, nil
}
