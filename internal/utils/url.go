package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
}

// ParseEndpointURL validates a remote endpoint base URI and returns it without a trailing slash.
// Only http and https endpoints are accepted.
func ParseEndpointURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: "uri", Message: "uri cannot be empty"}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &ValidationError{Field: "uri", Message: err.Error()}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ValidationError{Field: "uri", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	if u.Host == "" {
		return "", &ValidationError{Field: "uri", Message: "missing host"}
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return "", &ValidationError{Field: "uri", Message: "query and fragment are not allowed"}
	}

	return strings.TrimRight(u.String(), "/"), nil
}
