package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/yjs/internal/token"
)

// ErrorCode identifies a diagnostic kind.
type ErrorCode string

const (
	// Lowering
	ErrL001 ErrorCode = "L001" // unbound symbol
	ErrL002 ErrorCode = "L002" // duplicate binding
	ErrL003 ErrorCode = "L003" // malformed pattern
	ErrL004 ErrorCode = "L004" // unsupported construct
	ErrL005 ErrorCode = "L005" // too many catch clauses
	ErrL006 ErrorCode = "L006" // bad argument

	// Modules
	ErrM001 ErrorCode = "M001" // module not found
	ErrM002 ErrorCode = "M002" // circular dependency
	ErrM003 ErrorCode = "M003" // module type is neither struct nor unit

	// Interchange documents
	ErrD001 ErrorCode = "D001"

	// Warnings
	WarnW001 ErrorCode = "W001" // unused binding
	WarnW002 ErrorCode = "W002" // deprecated module shape
	WarnW003 ErrorCode = "W003" // unreachable pattern
)

var codeNames = map[ErrorCode]string{
	ErrL001:  "UnboundSymbol",
	ErrL002:  "DuplicateBinding",
	ErrL003:  "MalformedPattern",
	ErrL004:  "UnsupportedConstruct",
	ErrL005:  "TooManyCatchClauses",
	ErrL006:  "BadArgument",
	ErrM001:  "ModuleNotFound",
	ErrM002:  "CircularDependency",
	ErrM003:  "ModuleShape",
	ErrD001:  "MalformedDocument",
	WarnW001: "UnusedBinding",
	WarnW002: "DeprecatedModule",
	WarnW003: "UnreachablePattern",
}

// Name returns the symbolic name of the code.
func (c ErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return string(c)
}

// IsWarning reports whether diagnostics with this code are non-fatal.
func (c ErrorCode) IsWarning() bool {
	return strings.HasPrefix(string(c), "W")
}

// DiagnosticError is a positioned compiler message.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	Message string
	File    string
}

// NewError creates a diagnostic anchored at tok.
func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: msg}
}

// Errorf is NewError with formatting.
func Errorf(code ErrorCode, tok token.Token, format string, args ...any) *DiagnosticError {
	return NewError(code, tok, fmt.Sprintf(format, args...))
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteByte(':')
	}
	if !e.Token.IsZero() {
		fmt.Fprintf(&b, "%d:%d:", e.Token.Line, e.Token.Column)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	if e.Code.IsWarning() {
		b.WriteString("warning: ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Anchor fills in a missing position and file. It is used when an error
// raised inside a dependency surfaces at the importing node.
func (e *DiagnosticError) Anchor(tok token.Token, file string) *DiagnosticError {
	if e.Token.IsZero() {
		e.Token = tok
	}
	if e.File == "" {
		e.File = file
	}
	return e
}

// Sink collects warnings for one compilation.
type Sink struct {
	Warnings []*DiagnosticError
}

// Warn records a non-fatal diagnostic.
func (s *Sink) Warn(code ErrorCode, tok token.Token, format string, args ...any) {
	if s == nil {
		return
	}
	s.Warnings = append(s.Warnings, Errorf(code, tok, format, args...))
}

// Merge appends other's warnings.
func (s *Sink) Merge(other *Sink) {
	if s == nil || other == nil {
		return
	}
	s.Warnings = append(s.Warnings, other.Warnings...)
}
