package pipeline

import (
	"github.com/funvibe/yjs/internal/modules"
)

// DecodeProcessor turns SourceCode into a Unit.
type DecodeProcessor struct{}

func (DecodeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Unit != nil || ctx.Failed() {
		return ctx
	}
	src, err := modules.DecodeSource(ctx.SourceCode, ctx.FilePath)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Unit = src.Unit
	ctx.Digest = src.Digest
	return ctx
}
