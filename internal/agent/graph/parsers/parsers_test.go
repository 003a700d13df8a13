package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-clone/server/internal/agent/model"
	errx "github.com/digital-clone/server/internal/core/error"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{
			name:    "bare object",
			content: `{"intent":"question"}`,
			want:    `{"intent":"question"}`,
		},
		{
			name:    "surrounded by prose",
			content: "Sure! Here is the analysis:\n{\"intent\":\"question\"}\nLet me know.",
			want:    `{"intent":"question"}`,
		},
		{
			name:    "code fence",
			content: "```json\n{\"intent\":\"question\"}\n```",
			want:    `{"intent":"question"}`,
		},
		{
			name:    "nested braces",
			content: `{"tool_arguments":{"calculate":{"expression":"1+{"}}}`,
			want:    `{"tool_arguments":{"calculate":{"expression":"1+{"}}}`,
		},
		{
			name:    "no object",
			content: "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			content: `{"intent":"question"`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeIntoSurfacesParseFailures(t *testing.T) {
	var a model.Analysis
	err := DecodeInto("not JSON at all", &a)
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrParse)

	var pe *errx.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not JSON at all", pe.Raw)
}

func TestDecodeIntoAnalysis(t *testing.T) {
	var a model.Analysis
	err := DecodeInto("```json\n{\"intent\":\"task_execution\",\"needs_tools\":true,\"tool_requirements\":[\"calculate\"]}\n```", &a)
	require.NoError(t, err)
	assert.Equal(t, "task_execution", a.Intent)
	assert.True(t, a.NeedsTools)
	assert.Equal(t, []string{"calculate"}, a.ToolRequirements)
}

func TestValidateAnalysisDefaults(t *testing.T) {
	a := model.Analysis{Intent: "  question  "}
	require.NoError(t, ValidateAnalysis(&a))
	assert.Equal(t, "question", a.Intent)
	assert.Equal(t, []string{}, a.ToolRequirements)
	assert.Equal(t, "conversational", a.ResponseType)
	assert.Equal(t, "medium", a.Priority)
}

func TestValidateAnalysisMissingIntent(t *testing.T) {
	a := model.Analysis{}
	err := ValidateAnalysis(&a)
	assert.ErrorIs(t, err, errx.ErrParse)
}

func TestValidatePlanNormalises(t *testing.T) {
	p := model.Plan{
		Plan:       "do things",
		ToolsToUse: []string{" calculate ", "", "web_search", "calculate"},
	}
	ValidatePlan(&p)
	assert.Equal(t, []string{"calculate", "web_search"}, p.ToolsToUse)
	assert.NotNil(t, p.ToolArguments)
	assert.Equal(t, "conversational", p.ResponseStrategy)
}
