package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/digital-clone/server/pkg/logger"
)

// newPromptHandler builds a typed PromptCallbackHandler that traces template
// rendering for the stage prompts.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			ev := logx.Debug().
				Str("component", string(info.Type)).
				Str("name", info.Name)
			if output != nil && len(output.Result) > 0 && output.Result[0] != nil {
				ev = ev.Int("rendered_len", len(output.Result[0].Content))
			}
			ev.Msg("Prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().
				Str("component", string(info.Type)).
				Str("name", info.Name).
				Err(err).
				Msg("Prompt rendering failed")
			return ctx
		},
	}
}
