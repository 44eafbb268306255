package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/internal/syncqueue"
	"github.com/s153756/My-Friend-Calendar/session"
)

//--------------------------------------------------------------------
// Authentication operations
//--------------------------------------------------------------------

// Login exchanges credentials for an access token and user identity, and
// installs both into the store in one step. It talks to the server directly
// rather than through the gateway: a 401 here means wrong credentials, not an
// expired session, so refresh-and-retry must not kick in.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.store.AddNotification("Network error, please try again", session.KindError)
		return fmt.Errorf("login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("login: decode response: %w", err)
	}
	if body.AccessToken == "" {
		return fmt.Errorf("login: response missing access token")
	}

	c.store.Login(body.AccessToken, body.User)
	log.Debug().Str("email", body.User.Email).Msg("logged in")
	return nil
}

// Register creates an account and, on success, installs the returned session
// exactly as Login does. Like Login it bypasses the gateway.
func (c *Client) Register(ctx context.Context, reg RegisterRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/register", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.store.AddNotification("Network error, please try again", session.KindError)
		return fmt.Errorf("register: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("register: decode response: %w", err)
	}
	if body.AccessToken == "" {
		return fmt.Errorf("register: response missing access token")
	}

	c.store.Login(body.AccessToken, body.User)
	c.store.AddNotification("Welcome! Your account has been created", session.KindSuccess)
	return nil
}

// logoutJob notifies the server so it can revoke the refresh credential. The
// call is best-effort: the local session is already gone by the time it runs.
type logoutJob struct {
	client *Client
	token  string
}

func (j logoutJob) Run(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.client.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}
	if j.token != "" {
		req.Header.Set("Authorization", "Bearer "+j.token)
	}
	resp, err := j.client.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// Logout clears the local session immediately and revokes the server-side
// credential in the background. Local logout never fails.
func (c *Client) Logout(ctx context.Context) {
	token := c.store.AccessToken()
	c.store.Logout()
	if token == "" {
		return
	}
	if err := c.exec.Submit(ctx, "auth", logoutJob{client: c, token: token}); err != nil {
		if syncqueue.IsQueueFull(err) {
			log.Warn().Msg("logout revocation dropped, queue full")
			return
		}
		log.Warn().Err(err).Msg("logout revocation not submitted")
	}
}

// RequestPasswordReset asks the server to email a reset link. The response is
// intentionally the same whether or not the address exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	payload, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/request_reset-password", payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}
	c.store.AddNotification("If the address exists, a reset link is on its way", session.KindSuccess)
	return nil
}

// ResetPassword completes a reset using the token from the emailed link.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	payload, err := json.Marshal(map[string]string{"token": token, "password": password})
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/reset-password", payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}
	c.store.AddNotification("Password updated, you can log in now", session.KindSuccess)
	return nil
}
