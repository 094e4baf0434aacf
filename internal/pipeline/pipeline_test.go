package pipeline

import (
	"errors"
	"testing"

	"github.com/funvibe/yjs/internal/diagnostics"
)

func TestDecodeProcessor(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		source  string
		unit    string
		errCode diagnostics.ErrorCode
	}{
		{name: "program", path: "main.yjs.yaml", source: "unit: main\nbody: {num: \"1\"}\n", unit: "main"},
		{name: "json", path: "main.yjs.json", source: `{"unit": "m", "body": {"str": "s"}}`, unit: "m"},
		{name: "no body", path: "main.yjs.yaml", source: "unit: main\n", errCode: diagnostics.ErrD001},
		{name: "unknown node", path: "main.yjs.yaml", source: "unit: main\nbody: {bogus: 1}\n", errCode: diagnostics.ErrD001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := New(DecodeProcessor{}).Run(NewPipelineContext(tt.path, []byte(tt.source)))
			if tt.errCode != "" {
				var de *diagnostics.DiagnosticError
				if len(ctx.Errors) != 1 || !errors.As(ctx.Errors[0], &de) || de.Code != tt.errCode {
					t.Fatalf("errors = %v, want %s", ctx.Errors, tt.errCode)
				}
				if de.File != tt.path {
					t.Errorf("file = %q", de.File)
				}
				return
			}
			if ctx.Failed() {
				t.Fatal(ctx.Errors)
			}
			if ctx.Unit.Name != tt.unit || ctx.Digest == "" || ctx.Name() != tt.unit {
				t.Errorf("unit %q digest %q", ctx.Unit.Name, ctx.Digest)
			}
		})
	}
}

func TestLaterStagesSkipAfterFailure(t *testing.T) {
	ran := false
	stage := ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
		if ctx.Failed() {
			return ctx
		}
		ran = true
		return ctx
	})
	ctx := New(DecodeProcessor{}, stage).Run(NewPipelineContext("x.yjs.yaml", []byte("[")))
	if !ctx.Failed() || ran {
		t.Errorf("failed=%v ran=%v", ctx.Failed(), ran)
	}
	if ctx.Name() != "x.yjs.yaml" {
		t.Errorf("Name = %q", ctx.Name())
	}
}
