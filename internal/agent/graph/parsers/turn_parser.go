package parsers

import (
	"fmt"
	"strings"

	"github.com/digital-clone/server/internal/agent/model"
	errx "github.com/digital-clone/server/internal/core/error"
)

// ValidateAnalysis normalises a decoded analysis in place. Normalisation is
// deliberately forgiving (trimmed strings, defaulted labels); a missing
// intent still counts as a parse failure so the analyze stage falls back to
// its fixed classification.
func ValidateAnalysis(a *model.Analysis) error {
	a.Intent = strings.TrimSpace(a.Intent)
	if a.Intent == "" {
		return errx.WrapParse(fmt.Errorf("analysis missing intent"), "")
	}
	if a.ToolRequirements == nil {
		a.ToolRequirements = []string{}
	}
	if strings.TrimSpace(a.ResponseType) == "" {
		a.ResponseType = "conversational"
	}
	if strings.TrimSpace(a.Priority) == "" {
		a.Priority = "medium"
	}
	return nil
}

// ValidatePlan normalises a decoded plan in place. Empty and duplicate tool
// names are dropped, first occurrence wins; a plan with no description is
// still usable, so nothing here fails.
func ValidatePlan(p *model.Plan) {
	tools := make([]string, 0, len(p.ToolsToUse))
	seen := make(map[string]struct{}, len(p.ToolsToUse))
	for _, name := range p.ToolsToUse {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tools = append(tools, name)
	}
	p.ToolsToUse = tools
	if p.ToolArguments == nil {
		p.ToolArguments = map[string]map[string]any{}
	}
	if strings.TrimSpace(p.ResponseStrategy) == "" {
		p.ResponseStrategy = "conversational"
	}
}
