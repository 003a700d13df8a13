package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewTurnCallbacks aggregates the prompt and model observers into a single
// callbacks.Handler, attached per turn via compose.WithCallbacks.
func NewTurnCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Prompt(newPromptHandler()).
		ChatModel(newModelHandler()).
		Handler()
}
