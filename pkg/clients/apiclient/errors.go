package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// UserMessage returns the message provided by the server, if any
func (e *APIError) UserMessage() string {
	return e.Message
}

// newAPIError extracts the server message. The API answers with
// {"message": "..."} or {"message": ["...", "..."]}, sometimes with "error" only.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}

	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}

	var single string
	var many []string
	switch {
	case len(payload.Message) == 0:
		apiErr.Message = payload.Error
	case json.Unmarshal(payload.Message, &single) == nil:
		apiErr.Message = single
	case json.Unmarshal(payload.Message, &many) == nil:
		apiErr.Message = strings.Join(many, "; ")
	default:
		apiErr.Message = payload.Error
	}

	return apiErr
}
