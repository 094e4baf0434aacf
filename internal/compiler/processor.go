package compiler

import (
	"github.com/funvibe/yjs/internal/modules"
	"github.com/funvibe/yjs/internal/pipeline"
)

// Processor is the pipeline stage lowering the decoded unit.
type Processor struct {
	Compiler *Compiler
}

func NewProcessor(c *Compiler) *Processor {
	return &Processor{Compiler: c}
}

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Unit == nil || ctx.Failed() {
		return ctx
	}
	res, err := p.Compiler.CompileSource(ctx.Context, &modules.Source{
		Unit:   ctx.Unit,
		Digest: ctx.Digest,
		Path:   ctx.FilePath,
	})
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Output = res.Text
	ctx.Type = res.Type
	ctx.Modules = res.Modules
	ctx.Warnings = append(ctx.Warnings, res.Warnings...)
	return ctx
}
