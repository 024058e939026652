package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the backend rejected the token (or there was none).
	// By the time a caller sees it the session has already been cleared.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBackendUnavailable wraps transport failures: nothing came back from the backend
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// FieldError is one entry of a validation failure list
type FieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func (f FieldError) String() string {
	parts := make([]string, 0, len(f.Loc))
	for _, p := range f.Loc {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, ".") + ": " + f.Msg
}

// APIError is a non-2xx backend response. Detail is set when the body's
// detail was a plain string, Fields when it was a validation list.
type APIError struct {
	Status int
	Detail string
	Fields []FieldError
}

func (e *APIError) Error() string {
	if msg := e.message(); msg != "" {
		return msg
	}
	return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
}

// MessageOr returns what the backend said, or fallback if it said nothing useful
func (e *APIError) MessageOr(fallback string) string {
	if msg := e.message(); msg != "" {
		return msg
	}
	return fallback
}

func (e *APIError) message() string {
	if len(e.Fields) > 0 {
		msgs := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			msgs = append(msgs, f.String())
		}
		return strings.Join(msgs, ", ")
	}
	return e.Detail
}

// Largest error body we bother reading
const maxErrorBody = 1 << 20

// DecodeError turns a non-2xx response into an *APIError, consuming the body.
// A detail that is neither a string nor a list of field errors is kept as raw
// JSON text.
func DecodeError(res *http.Response) error {
	defer res.Body.Close()

	apiErr := &APIError{Status: res.StatusCode}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var fields []FieldError
	if err := json.Unmarshal(envelope.Detail, &fields); err == nil {
		apiErr.Fields = fields
		return apiErr
	}

	apiErr.Detail = string(envelope.Detail)
	return apiErr
}

// AsAPIError is a shorthand for errors.As
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
