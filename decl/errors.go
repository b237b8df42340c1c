package decl

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds.  Every error produced while lexing, parsing or running a
// program wraps exactly one of these so callers can use errors.Is.
var (
	ErrLex       = errors.New("LexError")
	ErrParse     = errors.New("ParseError")
	ErrName      = errors.New("NameError")
	ErrType      = errors.New("TypeError")
	ErrImport    = errors.New("ImportError")
	ErrRecursion = errors.New("RecursionError")
)

// Error codes refine a kind.
const (
	CodeUnexpectedCharacter = "UnexpectedCharacter"
	CodeUnexpectedToken     = "UnexpectedToken"
	CodeExpectedMismatch    = "ExpectedMismatch"
	CodeInvalidAssignment   = "InvalidAssignment"
	CodeUndefinedVariable   = "UndefinedVariable"
	CodeInvalidOperands     = "InvalidOperands"
	CodeNotCallable         = "NotCallable"
	CodeInvalidIndex        = "InvalidIndex"
	CodeNotIterable         = "NotIterable"
	CodeInvalidArgument     = "InvalidArgument"
	CodeInvalidDelete       = "InvalidDelete"
	CodeUnknownModule       = "UnknownModule"
	CodeMissingExport       = "MissingExport"
	CodeImportCycle         = "ImportCycle"
	CodeMaxDepthExceeded    = "MaxDepthExceeded"
)

// Error is a positioned interpreter error.
type Error struct {
	Kind error
	Code string
	Msg  string
	Pos  Location
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s::%s at %s: %s", e.Kind, e.Code, e.Pos.LineColStr(), e.Msg)
	}
	return fmt.Sprintf("%s::%s: %s", e.Kind, e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func Errorf(kind error, code string, pos Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func NameErrorf(pos Location, format string, args ...any) *Error {
	return Errorf(ErrName, CodeUndefinedVariable, pos, format, args...)
}

func TypeErrorf(code string, pos Location, format string, args ...any) *Error {
	return Errorf(ErrType, code, pos, format, args...)
}

// ParseError reports a token that did not match what the grammar expected.
type ParseError struct {
	Code     string
	Msg      string
	Pos      Location
	Expected []string // Expected kinds or operator texts
	Got      string   // Kind of the offending token
	GotText  string
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("%s::%s at %s: %s", ErrParse, p.Code, p.Pos.LineColStr(), p.Msg)
}

func (p *ParseError) Unwrap() error { return ErrParse }

// NewParseError builds an ExpectedMismatch (when expected is not empty) or
// an UnexpectedToken error.
func NewParseError(pos Location, expected []string, got, gotText string) *ParseError {
	out := &ParseError{Pos: pos, Expected: expected, Got: got, GotText: gotText}
	switch len(expected) {
	case 0:
		out.Code = CodeUnexpectedToken
		out.Msg = fmt.Sprintf("unexpected token %s (%q)", got, gotText)
	case 1:
		out.Code = CodeExpectedMismatch
		out.Msg = fmt.Sprintf("expected %s, found: %s (%q)", expected[0], got, gotText)
	default:
		out.Code = CodeExpectedMismatch
		out.Msg = fmt.Sprintf("expected one of: [%s], found: %s (%q)", strings.Join(expected, ", "), got, gotText)
	}
	return out
}

// ModuleError wraps an error raised while running an imported module.  Pos
// is the import statement in the importing source; the wrapped error keeps
// its position inside the module.
type ModuleError struct {
	Module string
	Pos    Location
	Err    error
}

func (m *ModuleError) Error() string {
	return fmt.Sprintf("in module %q imported at %s: %v", m.Module, m.Pos.LineColStr(), m.Err)
}

func (m *ModuleError) Unwrap() error { return m.Err }

// ErrorPos returns the source location attached to err, if any.  For
// errors raised inside an imported module that is the outermost import
// statement, since that is the position in the source that was run.
func ErrorPos(err error) (Location, bool) {
	var me *ModuleError
	if errors.As(err, &me) {
		return me.Pos, me.Pos.IsValid()
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Pos, pe.Pos.IsValid()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Pos, e.Pos.IsValid()
	}
	return Location{}, false
}
