package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/digital-clone/server/pkg/logger"
)

// newModelHandler builds a typed ModelCallbackHandler that logs the prompt
// context going into each model call and the reply coming back.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			ev := logx.Debug().
				Str("component", string(info.Type)).
				Str("name", info.Name)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages))
				if um := lastUserContent(input.Messages); um != "" {
					ev = ev.Str("user", um)
				}
			}
			ev.Msg("Model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			ev := logx.Debug().
				Str("component", string(info.Type)).
				Str("name", info.Name)
			if output != nil && output.Message != nil {
				ev = ev.Str("assistant", strings.TrimSpace(output.Message.Content))
				if output.TokenUsage != nil {
					ev = ev.Int("prompt_tokens", output.TokenUsage.PromptTokens).
						Int("completion_tokens", output.TokenUsage.CompletionTokens)
				}
			}
			ev.Msg("Model call finished")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().
				Str("component", string(info.Type)).
				Str("name", info.Name).
				Err(err).
				Msg("Model call failed")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
