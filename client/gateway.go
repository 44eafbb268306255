package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/session"
)

//--------------------------------------------------------------------
// Authenticated request gateway
//--------------------------------------------------------------------

// gatewayRequest is an immutable description of one logical request plus an
// explicit retry marker. Each transmission attempt is rebuilt from it, so no
// shared request object is ever mutated and a replay after refresh is byte
// identical to the original.
type gatewayRequest struct {
	Method         string
	Path           string
	Body           []byte
	AlreadyRetried bool
}

// send issues an authenticated request. The current access token (if any) is
// attached as a bearer credential. A 401 triggers at most one token refresh
// followed by one replay of the same request; any further 401, or a refresh
// failure, clears the session and surfaces ErrSessionExpired.
//
// Non-401 responses pass through untouched, success and failure alike.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	requestsTotal.WithLabelValues(method).Inc()
	return c.dispatch(ctx, gatewayRequest{Method: method, Path: path, Body: body})
}

func (c *Client) dispatch(ctx context.Context, gr gatewayRequest) (*http.Response, error) {
	resp, err := c.transmit(ctx, gr, c.store.AccessToken())
	if err != nil {
		c.store.AddNotification("Network error, please try again", session.KindError)
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	if !gr.AlreadyRetried {
		if _, err := c.refreshAccessToken(ctx); err != nil {
			log.Debug().Err(err).Str("path", gr.Path).Msg("refresh failed, forcing logout")
			c.forceLogout()
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		gr.AlreadyRetried = true
		authRetriesTotal.Inc()
		// The refreshed token is in the store; the replayed request picks it
		// up and lands in the branch below if it is rejected again.
		return c.dispatch(ctx, gr)
	}

	c.forceLogout()
	return nil, ErrSessionExpired
}

// transmit performs one attempt: build the request, attach the bearer token
// when present, send.
func (c *Client) transmit(ctx context.Context, gr gatewayRequest, token string) (*http.Response, error) {
	var rdr io.Reader
	if gr.Body != nil {
		rdr = bytes.NewReader(gr.Body)
	}
	req, err := http.NewRequestWithContext(ctx, gr.Method, c.baseURL+gr.Path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.http.Do(req)
}

// forceLogout clears the whole session and triggers the embedding UI's
// redirect to its unauthenticated landing view.
func (c *Client) forceLogout() {
	forcedLogoutsTotal.Inc()
	c.store.Logout()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// apiError decodes a structured rejection body and surfaces each message as
// an error notification before handing the typed error to the caller.
func (c *Client) apiError(resp *http.Response) *APIError {
	apiErr := decodeAPIError(resp)
	for _, msg := range apiErr.Messages {
		c.store.AddNotification(msg, session.KindError)
	}
	return apiErr
}
