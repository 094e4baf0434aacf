// Package pipeline runs a unit through the stages decode, compile and
// emit.
package pipeline

import (
	"context"

	"github.com/funvibe/yjs/internal/ast"
	"github.com/funvibe/yjs/internal/diagnostics"
	"github.com/funvibe/yjs/internal/typesystem"
)

// Processor is one stage of a Pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// PipelineContext carries a unit through the stages.
type PipelineContext struct {
	Context context.Context

	FilePath   string
	SourceCode []byte
	// Digest identifies SourceCode; set by the decoder.
	Digest string

	Unit *ast.Unit

	// Output is the assembled target text.
	Output   string
	Type     typesystem.Type
	Modules  []string
	Warnings []*diagnostics.DiagnosticError

	// Written is where the emitter put Output.
	Written string

	Errors []error
}

// NewPipelineContext starts a pipeline over the document at path.
func NewPipelineContext(path string, source []byte) *PipelineContext {
	return &PipelineContext{Context: context.Background(), FilePath: path, SourceCode: source}
}

// WithContext replaces the context of blocking stages.
func (ctx *PipelineContext) WithContext(c context.Context) *PipelineContext {
	ctx.Context = c
	return ctx
}

// Failed reports whether a stage has recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// AddError records err.
func (ctx *PipelineContext) AddError(err error) {
	ctx.Errors = append(ctx.Errors, err)
}

// Name returns the unit name, or the file path before decoding.
func (ctx *PipelineContext) Name() string {
	if ctx.Unit != nil {
		return ctx.Unit.Name
	}
	return ctx.FilePath
}
