package model

// ================ Config ================

// AgentConfig is immutable for the lifetime of one pipeline instance.
// Updating configuration constructs a new pipeline from the value returned
// by Apply; running pipelines never see their model binding change in place.
type AgentConfig struct {
	ModelName    string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash" json:"model_name"`
	Temperature  float32 `envconfig:"AGENT_TEMPERATURE" default:"0.7" json:"temperature"`
	MaxTokens    int     `envconfig:"AGENT_MAX_TOKENS" default:"1000" json:"max_tokens"`
	SystemPrompt string  `envconfig:"AGENT_SYSTEM_PROMPT" default:"You are a helpful AI assistant." json:"system_prompt"`
	EnableTools  bool    `envconfig:"AGENT_ENABLE_TOOLS" default:"true" json:"enable_tools"`
	ToolProxyURL string  `envconfig:"TOOL_PROXY_URL" default:"http://localhost:8001" json:"tool_proxy_url"`
}

// ConfigUpdate carries the mutable subset of AgentConfig accepted by the
// config endpoint. Nil fields are left unchanged.
type ConfigUpdate struct {
	Temperature  *float32 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
	SystemPrompt *string  `json:"system_prompt,omitempty"`
	EnableTools  *bool    `json:"enable_tools,omitempty"`
}

// Apply returns a new config with the update merged in; the receiver is not
// modified.
func (c AgentConfig) Apply(upd ConfigUpdate) AgentConfig {
	next := c
	if upd.Temperature != nil {
		next.Temperature = *upd.Temperature
	}
	if upd.MaxTokens != nil {
		next.MaxTokens = *upd.MaxTokens
	}
	if upd.SystemPrompt != nil {
		next.SystemPrompt = *upd.SystemPrompt
	}
	if upd.EnableTools != nil {
		next.EnableTools = *upd.EnableTools
	}
	return next
}
