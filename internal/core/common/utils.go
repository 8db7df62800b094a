package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence (```json ... ```)
// from an LLM response.
func StripFences(response string) string {
	s := strings.TrimSpace(response)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSON returns the outermost {...} object in response, ignoring any
// prose or fences around it.
func ExtractJSON(response string) (string, error) {
	s := StripFences(response)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response (missing '{')")
	}
	if end < start {
		return "", fmt.Errorf("no JSON object found in response (missing '}')")
	}
	return s[start : end+1], nil
}

// ParseJSON extracts and unmarshals a JSON object from an LLM response.
// Numbers decode as json.Number so integer attributes survive intact.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return zero, err
	}

	var result T
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}
	return result, nil
}
