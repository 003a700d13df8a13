package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/digital-clone/server/internal/agent/model"
	logx "github.com/digital-clone/server/pkg/logger"
)

// GeminiConfig holds the provider-level settings for the Gemini backend.
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// NewGeminiInvoker builds the production invoker: one Gemini chat model
// configured from the immutable agent config. Rebuilding the pipeline with
// a new config constructs a new invoker rather than mutating this one.
func NewGeminiInvoker(ctx context.Context, provider GeminiConfig, cfg model.AgentConfig) (*ChatModelInvoker, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  provider.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if provider.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = provider.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.ModelName,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.ModelName).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return NewChatModelInvoker(chatModel, cfg.ModelName), nil
}
