package appraisalsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/appraisal/pkg/httpx"
)

// APIError is a failed call as reported by the envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code so callers can compare against the sentinels below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

var (
	ErrUnauthenticated = &APIError{Code: httpx.CodeUnauthenticated}
	ErrForbidden       = &APIError{Code: httpx.CodeForbidden}
	ErrValidation      = &APIError{Code: httpx.CodeValidation}
	ErrNotFound        = &APIError{Code: httpx.CodeNotFound}
	ErrExpired         = &APIError{Code: httpx.CodeExpired}
	ErrConflict        = &APIError{Code: httpx.CodeConflict}
	ErrRateLimited     = &APIError{Code: httpx.CodeRateLimited}
	ErrInternal        = &APIError{Code: httpx.CodeInternal}
)

// parseErrorResponse turns a non-success response into an *APIError,
// falling back to the status text when the body is not an envelope.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Error.Code,
			Message:    env.Error.Message,
			Details:    env.Error.Details,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       codeForStatus(resp.StatusCode),
		Message:    http.StatusText(resp.StatusCode),
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return httpx.CodeUnauthenticated
	case http.StatusForbidden:
		return httpx.CodeForbidden
	case http.StatusBadRequest:
		return httpx.CodeValidation
	case http.StatusNotFound:
		return httpx.CodeNotFound
	case http.StatusGone:
		return httpx.CodeExpired
	case http.StatusConflict:
		return httpx.CodeConflict
	case http.StatusTooManyRequests:
		return httpx.CodeRateLimited
	default:
		return httpx.CodeInternal
	}
}
