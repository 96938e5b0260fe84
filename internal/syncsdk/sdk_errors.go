package syncsdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	ErrNoServerURL      = errors.New("sdk: server url missing")
	ErrUnexpectedStatus = errors.New("sdk: unexpected status")
)

const (
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error
)

// APIError is the error body returned by a mynk remote
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// handleAPIError is a helper function that handles the common error pattern.
// Any status outside 2xx is an error, with the decoded APIError attached when the remote sent one.
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if resp != nil && resp.Response != nil && !resp.IsSuccessState() {
		if apiErr, ok := resp.ErrorResult().(*APIError); ok && apiErr.Code != "" {
			return fmt.Errorf("%s: %w %d: %w", operation, ErrUnexpectedStatus, resp.StatusCode, apiErr)
		}
		return fmt.Errorf("%s: %w %d", operation, ErrUnexpectedStatus, resp.StatusCode)
	}

	if requestErr != nil {
		return fmt.Errorf("%s: http request error: %w", operation, requestErr)
	}

	return nil
}
