package completion

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedBlock matches the contents of the first markdown code fence,
// with or without a json language tag.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseObject extracts a JSON object from raw model output. Strategies are
// tried in order, first success wins:
//
//  1. parse the whole response text directly
//  2. parse the contents of a fenced code block
//  3. parse the substring from the first '{' to the last '}'
//
// Every provider's output goes through this same chain. If all three fail
// the result is a ResponseParseError carrying the raw text.
func ParseObject(raw string) (map[string]any, error) {
	if obj, ok := tryParse(raw); ok {
		return obj, nil
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if obj, ok := tryParse(m[1]); ok {
			return obj, nil
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if obj, ok := tryParse(raw[start : end+1]); ok {
			return obj, nil
		}
	}

	return nil, &ResponseParseError{Raw: raw}
}

func tryParse(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	return obj, true
}
