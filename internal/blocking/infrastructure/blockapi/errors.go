package blockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("block api unavailable: circuit open")

	// ErrNotConfigured is returned when the client has no base URL.
	ErrNotConfigured = errors.New("block api base url not configured")
)

// APIError is a non-2xx response from the Block API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("block api %s %s: status=%d detail=%s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("block api %s %s: status=%d", e.Method, e.Path, e.StatusCode)
}

// UserDetail returns the server's message for display.
func (e *APIError) UserDetail() string {
	return e.Detail
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

var detailKeys = []string{"detail", "message", "error", "mensaje"}

// extractDetail pulls a readable message out of an error body. Each key may
// hold a string, or a list of strings or {"msg": ...} objects.
func extractDetail(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range detailKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if msg := detailText(raw); msg != "" {
			return msg
		}
	}
	return ""
}

func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var obj struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Msg != "" {
			msgs = append(msgs, strings.TrimSpace(obj.Msg))
			continue
		}
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			msgs = append(msgs, strings.TrimSpace(s))
		}
	}
	return strings.Join(msgs, " ")
}
