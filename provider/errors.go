package provider

import (
	"fmt"
	"net/http"
	"strings"
)

// CustomErrorCode marks a validation error whose message is meant to be shown as is.
const CustomErrorCode = "custom"

// ErrorDetail is one structured validation error reported by a provider.
type ErrorDetail struct {
	Resource string
	Code     string
	Field    string
	Message  string
}

func (d ErrorDetail) String() string {
	switch {
	case d.Code == CustomErrorCode || (d.Code == "" && d.Message != ""):
		return d.Message
	case d.Field != "":
		return fmt.Sprintf("%s (%s)", d.Code, d.Field)
	default:
		return d.Code
	}
}

// APIError is a non-2xx REST answer, or a GraphQL answer carrying errors, from either provider.
type APIError struct {
	Provider   Kind
	Method     string
	URL        string
	StatusCode int
	// Message is the operator facing text: the primary message followed by the details.
	Message string
	Details []ErrorDetail
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s API request failed with status %d %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode))
}

// ComposeMessage joins a primary message with its per-field errors:
// "Validation Failed: name already exists, missing_field (title)".
func ComposeMessage(primary string, details []ErrorDetail) string {
	parts := make([]string, 0, len(details))
	for _, detail := range details {
		if s := detail.String(); s != "" {
			parts = append(parts, s)
		}
	}
	joined := strings.Join(parts, ", ")
	switch {
	case joined == "":
		return primary
	case primary == "":
		return joined
	default:
		return primary + ": " + joined
	}
}

// NewAPIError builds an APIError and composes its message.
func NewAPIError(kind Kind, resp *http.Response, primary string, details []ErrorDetail) *APIError {
	apiErr := &APIError{
		Provider: kind,
		Message:  ComposeMessage(primary, details),
		Details:  details,
	}
	if resp != nil {
		apiErr.StatusCode = resp.StatusCode
		if resp.Request != nil {
			apiErr.Method = resp.Request.Method
			apiErr.URL = resp.Request.URL.String()
		}
	}
	if apiErr.Message == "" && apiErr.StatusCode != 0 {
		apiErr.Message = http.StatusText(apiErr.StatusCode)
	}
	return apiErr
}

// TransportError is a failure before any response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
