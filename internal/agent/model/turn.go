package model

// Analysis is the structured output of the analyze stage: the model's
// classification of the latest user message.
type Analysis struct {
	Intent           string   `json:"intent"`
	NeedsTools       bool     `json:"needs_tools"`
	ToolRequirements []string `json:"tool_requirements"`
	ResponseType     string   `json:"response_type"`
	Priority         string   `json:"priority"`
}

// FallbackAnalysis is the fixed classification substituted when the analyze
// stage's model call fails or returns malformed output.
func FallbackAnalysis() *Analysis {
	return &Analysis{
		Intent:           "conversation",
		NeedsTools:       false,
		ToolRequirements: []string{},
		ResponseType:     "conversational",
		Priority:         "medium",
	}
}

// Plan is the structured output of the plan stage.
type Plan struct {
	Plan             string                    `json:"plan"`
	ToolsToUse       []string                  `json:"tools_to_use"`
	ToolArguments    map[string]map[string]any `json:"tool_arguments"`
	ResponseStrategy string                    `json:"response_strategy"`
}

// FallbackPlan is the fixed plan substituted when the plan stage's model
// call fails or returns malformed output: no tools, conversational response.
func FallbackPlan() *Plan {
	return &Plan{
		Plan:             "Provide a helpful response",
		ToolsToUse:       []string{},
		ToolArguments:    map[string]map[string]any{},
		ResponseStrategy: "conversational",
	}
}

// ArgumentsFor returns the plan's argument mapping for a tool, defaulting to
// an empty mapping when the plan carries none.
func (p *Plan) ArgumentsFor(tool string) map[string]any {
	if p.ToolArguments == nil {
		return map[string]any{}
	}
	args, ok := p.ToolArguments[tool]
	if !ok || args == nil {
		return map[string]any{}
	}
	return args
}
