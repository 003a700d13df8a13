// Package parsers decodes structured model output for the analyze and plan
// stages. Models are asked for JSON but routinely wrap it in prose or code
// fences, so extraction is lenient; decoding is strict and any failure is
// surfaced as a parse failure for the calling stage to handle.
package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	errx "github.com/digital-clone/server/internal/core/error"
)

// basic safety limit to avoid pathological inputs
const maxContentLen = 128 * 1024 // 128KB

// DecodeInto extracts the first JSON object from the model output and
// unmarshals it into out. Failures are returned as parse failures carrying
// the raw content (errx.ErrParse).
func DecodeInto(content string, out any) error {
	raw, err := ExtractJSON(content)
	if err != nil {
		return errx.WrapParse(err, content)
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return errx.WrapParse(err, content)
	}
	return nil
}

// ExtractJSON returns the first balanced top-level JSON object in content.
// Code fences and surrounding prose are ignored.
func ExtractJSON(content string) (string, error) {
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}
	content = stripCodeFences(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in model output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in model output")
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	if idx := strings.LastIndex(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}
