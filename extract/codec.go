package extract

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// ParseError reports a model response that could not be decoded as JSON.
// The raw response is kept so callers can log it.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: decode model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StripCodeFences removes a surrounding markdown code fence from a model
// response. Models regularly wrap JSON in ```json blocks despite being told
// not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSONResponse strips code fences and unmarshals the response into a
// generic payload map.
func DecodeJSONResponse(raw string) (map[string]any, error) {
	cleaned := StripCodeFences(raw)
	var payload map[string]any
	if err := sonic.UnmarshalString(cleaned, &payload); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return payload, nil
}
