package compiler

import (
	"testing"

	"github.com/funvibe/yjs/internal/backend"
	"github.com/funvibe/yjs/internal/pipeline"
)

func TestPipeline(t *testing.T) {
	l := newMemLoader(map[string]string{"leaf.yjs.yaml": leafDoc})
	out := backend.NewMemory()
	p := pipeline.New(
		pipeline.DecodeProcessor{},
		NewProcessor(New(Options{Loader: l})),
		backend.NewEmitProcessor(out),
	)

	ctx := p.Run(pipeline.NewPipelineContext("main.yjs.yaml", []byte(useDoc)))
	if ctx.Failed() {
		t.Fatal(ctx.Errors)
	}
	text, ok := out.Get("main")
	if !ok || text != ctx.Output {
		t.Fatalf("emitted %q", text)
	}
	if len(ctx.Modules) != 1 || ctx.Modules[0] != "leaf" {
		t.Errorf("modules = %v", ctx.Modules)
	}

	ctx = p.Run(pipeline.NewPipelineContext("bad.yjs.yaml", []byte("unit: bad\nbody: {load: nowhere}\n")))
	if len(ctx.Errors) != 1 || ctx.Written != "" {
		t.Errorf("errors %v, written %q", ctx.Errors, ctx.Written)
	}
	if _, ok := out.Get("bad"); ok {
		t.Error("failed unit was emitted")
	}
}
