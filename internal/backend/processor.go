package backend

import (
	"github.com/funvibe/yjs/internal/pipeline"
)

// EmitProcessor is the pipeline stage handing the output to a CodeWriter.
type EmitProcessor struct {
	Writer CodeWriter
}

func NewEmitProcessor(w CodeWriter) *EmitProcessor {
	return &EmitProcessor{Writer: w}
}

func (p *EmitProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Unit == nil || ctx.Failed() {
		return ctx
	}
	where, err := p.Writer.Write(ctx.Unit.Name, ctx.Output)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Written = where
	return ctx
}
