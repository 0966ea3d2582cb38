package jupiter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

// APIError is a response body that carries a truthy "error" field.
type APIError struct {
	Endpoint   string // "quote" or "swap-instructions"
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.Endpoint {
	case endpointSwapInstructions:
		return "failed to get swap instructions: " + e.Message
	case endpointQuote:
		return "failed to get quote: " + e.Message
	default:
		return fmt.Sprintf("jupiter %s: %s", e.Endpoint, e.Message)
	}
}

// DecodeError reports a response field that failed boundary validation.
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorField extracts a truthy "error" member from a JSON object body.
// Non-object bodies, null, false, 0 and "" are not errors.
func errorField(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || len(envelope.Error) == 0 {
		return "", false
	}

	var v any
	if err := json.Unmarshal(envelope.Error, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case nil:
		return "", false
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		if t == 0 {
			return "", false
		}
		return string(envelope.Error), true
	default:
		return string(envelope.Error), true
	}
}
