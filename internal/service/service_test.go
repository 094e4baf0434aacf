package service

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/compiler"
	"github.com/funvibe/yjs/internal/modules"
)

// noLoader serves no units.
type noLoader struct{}

func (noLoader) LoadUnit(string) (*modules.Source, error) { return nil, modules.ErrNotFound }
func (noLoader) ReadScript(string) (string, error)       { return "", modules.ErrNotFound }

const (
	programDoc = "unit: main\nbody: {op: {op: '+', left: {num: \"1\"}, right: {num: \"2\"}}}\n"
	bindDoc    = "unit: step\nbody: {bind: {name: x, value: {num: \"2\"}}}\n"
	useXDoc    = "unit: step\nbody: {op: {op: '+', left: {sym: x}, right: {num: \"1\"}}}\n"
	unboundDoc = "unit: step\nbody: {sym: nowhere}\n"
)

func newService() *Service {
	return New(compiler.New(compiler.Options{Loader: noLoader{}}))
}

func TestCompile(t *testing.T) {
	svc := newService()
	r, err := svc.Compile(context.Background(), []byte(programDoc), ast.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(r.Code, "// --- yjsmain ---\n") || !strings.Contains(r.Code, "1 + 2") {
		t.Errorf("code = %q", r.Code)
	}
	if len(r.Modules) != 0 {
		t.Errorf("modules = %v", r.Modules)
	}
}

func TestCompileConcurrentRequests(t *testing.T) {
	svc := newService()
	var wg sync.WaitGroup
	codes := make([]string, 8)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.Compile(context.Background(), []byte(programDoc), ast.FormatYAML)
			if err != nil {
				t.Error(err)
				return
			}
			codes[i] = r.Code
		}(i)
	}
	wg.Wait()
	for _, c := range codes[1:] {
		if c != codes[0] {
			t.Fatalf("replies differ: %q %q", c, codes[0])
		}
	}
}

func TestCompileErrors(t *testing.T) {
	svc := newService()
	if _, err := svc.Compile(context.Background(), nil, ast.FormatYAML); !errors.Is(err, ErrNoSource) {
		t.Errorf("empty document: got %v", err)
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrFormat) {
		t.Errorf("unknown format: got %v", err)
	}
	if _, err := svc.Compile(context.Background(), []byte(unboundDoc), ast.FormatYAML); err == nil {
		t.Error("unbound symbol compiled")
	}
}

func TestReplCarriesBindings(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.Repl(ctx, "", 0, []byte(bindDoc), ast.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if first.Session == "" || first.Seq != 1 {
		t.Fatalf("session = %q, seq = %d", first.Session, first.Seq)
	}
	ss, ok := svc.Get(first.Session)
	if !ok {
		t.Fatal("session not registered")
	}
	step0 := ss.stepVar(0)
	if !strings.Contains(first.Code, "var "+step0+" = (function() {\n") || !strings.Contains(first.Code, "var x = 2;") {
		t.Errorf("first step:\n%s", first.Code)
	}

	second, err := svc.Repl(ctx, first.Session, 1, []byte(useXDoc), ast.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if second.Seq != 2 {
		t.Errorf("seq = %d", second.Seq)
	}
	if !strings.Contains(second.Code, "var x = "+step0+".x;") {
		t.Errorf("second step does not see x:\n%s", second.Code)
	}
	if !strings.Contains(second.Code, "var it = x + 1;") {
		t.Errorf("second step does not bind its result:\n%s", second.Code)
	}
}

func TestReplSequence(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	r, err := svc.Repl(ctx, "", -1, []byte(bindDoc), ast.FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Repl(ctx, r.Session, 5, []byte(useXDoc), ast.FormatYAML); !errors.Is(err, ErrSequence) {
		t.Errorf("wrong seq: got %v", err)
	}
	if _, err := svc.Repl(ctx, r.Session, -1, []byte(unboundDoc), ast.FormatYAML); err == nil {
		t.Error("unbound symbol compiled")
	}
	ss, _ := svc.Get(r.Session)
	if ss.Seq() != 1 {
		t.Errorf("failed steps advanced seq to %d", ss.Seq())
	}
	if _, err := svc.Repl(ctx, "missing", -1, []byte(bindDoc), ast.FormatYAML); !errors.Is(err, ErrNoSession) {
		t.Errorf("unknown session: got %v", err)
	}
}

func TestStepUnit(t *testing.T) {
	unit, err := ast.Decode([]byte(bindDoc), ast.FormatYAML, "step.yjs.yaml")
	if err != nil {
		t.Fatal(err)
	}
	step, rec := stepUnit(unit, 3)
	if step.Name != "repl3" {
		t.Errorf("name = %q", step.Name)
	}
	if _, ok := rec.Fields["x"]; !ok || len(rec.Fields) != 1 {
		t.Errorf("type = %s", rec)
	}

	unit, err = ast.Decode([]byte("unit: step\nbody: {unit: true}\n"), ast.FormatYAML, "step.yjs.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, rec = stepUnit(unit, 0); len(rec.Fields) != 1 || rec.Fields[ResultName] == nil {
		t.Errorf("expression step type = %s", rec)
	}
}

func TestCloseAndSweep(t *testing.T) {
	svc := newService()
	a := svc.Open()
	b := svc.Open()
	if !svc.Close(a.ID) || svc.Close(a.ID) {
		t.Error("close is not reported once")
	}
	b.lastUsed.Store(time.Now().Add(-time.Hour).UnixNano())
	c := svc.Open()
	if n := svc.Sweep(time.Minute); n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}
	if _, ok := svc.Get(b.ID); ok {
		t.Error("idle session kept")
	}
	if _, ok := svc.Get(c.ID); !ok {
		t.Error("active session swept")
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	return lis
}
