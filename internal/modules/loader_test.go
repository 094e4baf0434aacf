package modules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/typesystem"
)

const mathDoc = `unit: util.math
module: true
compiler: 0.9.8
type: {struct: {sq: {fn: [number, number]}}}
body:
  struct:
    - name: sq
      value: {lambda: {param: {sym: x}, body: {sym: x}}}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirLoader(t *testing.T) {
	lib := t.TempDir()
	src := t.TempDir()
	writeFile(t, filepath.Join(lib, "util", "math.yjs.yaml"), mathDoc)
	writeFile(t, filepath.Join(src, "helper.js"), "function helper() {}\n")

	l := NewDirLoader(src, lib)
	s, err := l.LoadUnit("util.math")
	if err != nil {
		t.Fatal(err)
	}
	if s.Unit.Name != "util.math" || !s.Unit.IsModule || s.Unit.CompilerVersion != "0.9.8" {
		t.Errorf("unit = %+v", s.Unit)
	}
	if s.Digest != Digest([]byte(mathDoc)) {
		t.Errorf("digest mismatch")
	}
	if _, ok := typesystem.Record(s.Unit.Type); !ok {
		t.Errorf("type = %v, want a struct", s.Unit.Type)
	}

	if _, err := l.LoadUnit("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing unit: got %v", err)
	}

	text, err := l.ReadScript("helper")
	if err != nil || text != "function helper() {}\n" {
		t.Errorf("ReadScript = %q, %v", text, err)
	}
	if _, err := l.ReadScript("nope.js"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing script: got %v", err)
	}
}

func TestDecodeSourceCBOR(t *testing.T) {
	data, err := ast.EncodeCBOR([]byte(mathDoc))
	if err != nil {
		t.Fatal(err)
	}
	s, err := DecodeSource(data, "math.yjs.cbor")
	if err != nil {
		t.Fatal(err)
	}
	if s.Unit.Name != "util.math" {
		t.Errorf("name = %q", s.Unit.Name)
	}
}

func TestUnitName(t *testing.T) {
	tests := map[string]string{
		"src/main.yjs.yaml": "main",
		"a/b.yjs.cbor":      "b",
		"x.yjs.json":        "x",
		"plain.txt":         "plain",
	}
	for path, want := range tests {
		if got := UnitName(path); got != want {
			t.Errorf("UnitName(%q) = %q, want %q", path, got, want)
		}
	}
	if !IsDocument("a.yjs.yml") || IsDocument("a.yaml") {
		t.Error("IsDocument")
	}
}

func TestDeprecated(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"", false},
		{"0.9.7", true},
		{"0.9.8", false},
		{"0.4", true},
		{"1.0.0", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := Deprecated(tt.version); got != tt.want {
			t.Errorf("Deprecated(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}
