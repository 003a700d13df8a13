// Package llm wraps a single text-generation backend behind the two
// invocation modes the pipeline needs: free text and structured output.
// Retry and fallback policy live entirely in the calling stage; the invoker
// only classifies failures.
package llm

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/digital-clone/server/internal/agent/graph/parsers"
	errx "github.com/digital-clone/server/internal/core/error"
)

// Invoker is the pipeline's interface to one generation backend.
type Invoker interface {
	// GenerateText returns the model's reply to the message sequence.
	// Backend failures are reported as errx.ErrGeneration.
	GenerateText(ctx context.Context, messages []*schema.Message) (*schema.Message, error)

	// GenerateStructured asks the model for a JSON object and decodes it
	// into out. Backend failures are errx.ErrGeneration, malformed output
	// is errx.ErrParse; callers catch ErrParse to trigger their fallback.
	GenerateStructured(ctx context.Context, system, user string, out any) error

	// ModelName identifies the bound model for cost accounting and logging.
	ModelName() string
}

// ChatModelInvoker adapts an eino chat model to the Invoker interface.
type ChatModelInvoker struct {
	chatModel einomodel.BaseChatModel
	modelName string
}

// NewChatModelInvoker wraps the given chat model.
func NewChatModelInvoker(chatModel einomodel.BaseChatModel, modelName string) *ChatModelInvoker {
	return &ChatModelInvoker{chatModel: chatModel, modelName: modelName}
}

var _ Invoker = (*ChatModelInvoker)(nil)

func (m *ChatModelInvoker) ModelName() string {
	return m.modelName
}

func (m *ChatModelInvoker) GenerateText(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	out, err := m.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, errx.WrapGeneration(err)
	}
	if out == nil {
		return nil, errx.WrapGeneration(fmt.Errorf("backend returned no message"))
	}
	return out, nil
}

func (m *ChatModelInvoker) GenerateStructured(ctx context.Context, system, user string, out any) error {
	resp, err := m.GenerateText(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return err
	}
	return parsers.DecodeInto(resp.Content, out)
}
