package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON object or array.
var ErrNoJSON = errors.New("llm: no JSON found in response")

// StripFences removes a surrounding ```json ... ``` or ``` ... ``` block.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 && !strings.ContainsAny(content[:nl], "{[") {
		content = content[nl+1:] // language tag line
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ExtractJSON returns the first balanced {...} or [...] substring of s,
// honouring string literals and escapes. Models often wrap JSON in prose.
func ExtractJSON(s string) (string, error) {
	s = StripFences(s)
	start := strings.IndexAny(s, "{[")
	for start >= 0 {
		if end := matchBracket(s, start); end > start {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexAny(s[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

func matchBracket(s string, start int) int {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
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
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// DecodeJSON extracts and unmarshals the first JSON value in raw.
func DecodeJSON[T any](raw string) (T, error) {
	var out T
	js, err := ExtractJSON(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		return out, fmt.Errorf("llm: decode response (len %d): %w", len(js), err)
	}
	return out, nil
}
