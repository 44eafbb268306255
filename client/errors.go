package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

//--------------------------------------------------------------------
// Public errors & helpers
//--------------------------------------------------------------------

// ErrSessionExpired is returned when the session could not be recovered: the
// refresh attempt failed, or the retried request was rejected again. The
// store has already been logged out by the time callers see it.
var ErrSessionExpired = errors.New("session expired")

// IsSessionExpired reports whether err is a terminal session failure.
func IsSessionExpired(err error) bool { return errors.Is(err, ErrSessionExpired) }

// RefreshCause tags the distinct failure modes of the token refresh protocol.
type RefreshCause string

const (
	// RefreshMissingCsrf: the csrf_refresh_token cookie is not present, so a
	// refresh request cannot be proven same-site.
	RefreshMissingCsrf RefreshCause = "missing_csrf"
	// RefreshTransport: the network call failed or the server answered with a
	// non-success status.
	RefreshTransport RefreshCause = "transport_or_server_error"
	// RefreshMalformed: the server answered success but omitted the token.
	RefreshMalformed RefreshCause = "malformed_response"
)

// RefreshError reports a failed token refresh with its cause tag. The
// refresh protocol never forces a logout itself; the gateway owns that.
type RefreshError struct {
	Cause RefreshCause
	Err   error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed (%s): %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("token refresh failed (%s)", e.Cause)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// AsRefreshError unwraps err into a *RefreshError if one is in the chain.
func AsRefreshError(err error) (*RefreshError, bool) {
	var re *RefreshError
	ok := errors.As(err, &re)
	return re, ok
}

// APIError is a structured application-level rejection (validation failures,
// not-found, ...). It is never session-ending.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return e.Messages[0]
	}
	return fmt.Sprintf("request rejected: status %d", e.StatusCode)
}

// decodeAPIError reads a failure body that may carry {"error": "..."} or
// {"details": ["...", ...]}; the first detail takes surfacing priority over
// the error field.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		apiErr.Messages = []string{"An unexpected error occurred"}
		return apiErr
	}

	var payload struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Details) > 0 {
			// details is a list of strings or a single string
			var many []string
			if json.Unmarshal(payload.Details, &many) == nil && len(many) > 0 {
				apiErr.Messages = many
				return apiErr
			}
			var one string
			if json.Unmarshal(payload.Details, &one) == nil && one != "" {
				apiErr.Messages = []string{one}
				return apiErr
			}
		}
		if payload.Error != "" {
			apiErr.Messages = []string{payload.Error}
			return apiErr
		}
	}
	apiErr.Messages = []string{"An unexpected error occurred"}
	return apiErr
}
