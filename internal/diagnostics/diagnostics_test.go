package diagnostics

import (
	"testing"

	"github.com/funvibe/yjs/internal/token"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *DiagnosticError
		want string
	}{
		{"full", &DiagnosticError{Code: ErrL001, Token: token.New("x", 3, 7), Message: "Symbol x not declared", File: "a.yjs"},
			"a.yjs:3:7: Symbol x not declared"},
		{"no file", NewError(ErrL004, token.New("#", 1, 2), "classOf is not supported"),
			"1:2: classOf is not supported"},
		{"no position", NewError(ErrM002, token.Token{}, "circular module dependency: a"),
			"circular module dependency: a"},
		{"warning", Errorf(WarnW001, token.New("y", 2, 1), "unused binding: %s", "y"),
			"2:1: warning: unused binding: y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnchorKeepsExistingPosition(t *testing.T) {
	e := NewError(ErrL001, token.New("x", 4, 4), "m")
	e.Anchor(token.New("load", 1, 1), "main")
	if e.Token.Line != 4 || e.File != "main" {
		t.Errorf("Anchor overwrote position or missed file: %+v", e)
	}

	e = NewError(ErrM001, token.Token{}, "m")
	e.Anchor(token.New("load", 9, 2), "")
	if e.Token.Line != 9 {
		t.Errorf("Anchor did not fill missing position: %+v", e)
	}
}

func TestCodeNames(t *testing.T) {
	if ErrL005.Name() != "TooManyCatchClauses" {
		t.Errorf("unexpected name %q", ErrL005.Name())
	}
	if ErrL001.IsWarning() || !WarnW003.IsWarning() {
		t.Error("IsWarning misclassified codes")
	}
}
