package gemini

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// parseAnalysis decodes a model response that is supposed to be one JSON
// object but frequently arrives fenced, prefixed with prose, or both. The
// first balanced-brace span is tried when direct decoding fails.
func parseAnalysis(raw string) (*Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		span, ok := jsonSpan(raw)
		if !ok {
			return nil, eris.New("gemini: no JSON object in response")
		}
		if err := json.Unmarshal([]byte(span), &a); err != nil {
			return nil, eris.Wrap(err, "gemini: parse response")
		}
	}

	for key, val := range a.Fields {
		v := strings.TrimSpace(val)
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
			delete(a.Fields, key)
			continue
		}
		a.Fields[key] = v
	}
	if len(a.Fields) == 0 && a.Level == "" {
		return nil, eris.New("gemini: response carries no fields or level")
	}
	return &a, nil
}

// jsonSpan returns the first top-level {...} span in s. Braces inside JSON
// strings are accounted for.
func jsonSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
