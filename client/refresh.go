package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/session"
)

//--------------------------------------------------------------------
// Token refresh protocol
//--------------------------------------------------------------------

// csrfCookieName is the client-readable cookie the server sets alongside the
// httpOnly refresh credential; its value must be echoed as a header to prove
// same-site origin.
const csrfCookieName = "csrf_refresh_token"

const refreshPath = "/api/auth/refresh"

// refreshCall is one in-flight refresh shared by every waiter. Concurrent
// 401s coalesce onto it instead of each issuing their own refresh.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// refreshAccessToken coalesces concurrent callers onto a single Refresh.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if call := c.refresh; call != nil {
		c.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.refresh = call
	c.refreshMu.Unlock()

	call.token, call.err = c.Refresh(ctx)
	close(call.done)

	c.refreshMu.Lock()
	c.refresh = nil
	c.refreshMu.Unlock()
	return call.token, call.err
}

// Refresh exchanges the refresh credential (sent automatically from the
// cookie jar) for a new access token and stores it. It does not force a
// logout on failure; that is the gateway's call to make.
//
// The emitted notification is a best-effort user-visible signal and never
// changes the control-flow result.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	csrf, ok := c.csrfToken()
	if !ok {
		refreshTotal.WithLabelValues(refreshResultFailure).Inc()
		rerr := &RefreshError{Cause: RefreshMissingCsrf}
		c.store.AddNotification("Your session could not be renewed", session.KindError)
		return "", rerr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, strings.NewReader("{}"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-TOKEN", csrf)

	resp, err := c.http.Do(req)
	if err != nil {
		refreshTotal.WithLabelValues(refreshResultFailure).Inc()
		c.store.AddNotification("Your session could not be renewed", session.KindError)
		return "", &RefreshError{Cause: RefreshTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		refreshTotal.WithLabelValues(refreshResultFailure).Inc()
		c.store.AddNotification("Your session could not be renewed", session.KindError)
		return "", &RefreshError{Cause: RefreshTransport, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.AccessToken == "" {
		refreshTotal.WithLabelValues(refreshResultFailure).Inc()
		c.store.AddNotification("Your session could not be renewed", session.KindError)
		return "", &RefreshError{Cause: RefreshMalformed, Err: err}
	}

	c.store.SetAccessToken(body.AccessToken)
	refreshTotal.WithLabelValues(refreshResultSuccess).Inc()
	c.store.AddNotification("Session renewed", session.KindSuccess)
	log.Debug().Msg("access token refreshed")
	return body.AccessToken, nil
}

// csrfToken reads the anti-forgery token from the cookie jar.
func (c *Client) csrfToken() (string, bool) {
	if c.http.Jar == nil {
		return "", false
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", false
	}
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == csrfCookieName && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}
