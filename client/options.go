package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file avoids cluttering
// client.go and makes it easy to discover all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
)

// Option mutates the Client during New().
type Option func(*Client) error

// WithHTTPClient injects a custom *http.Client. Useful for setting transport
// timeouts, tracing, custom TLS settings, etc. A cookie jar is installed if
// the injected client has none, since the refresh protocol depends on it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		if hc.Jar == nil {
			jar, err := cookiejar.New(nil)
			if err != nil {
				return err
			}
			hc.Jar = jar
		}
		c.http = hc
		return nil
	}
}

// WithDebugLogging wraps the client's transport such that every request/response
// is logged when `enabled` is true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			transport := c.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: transport}
		}
		return nil
	}
}

// WithoutExecutor disables the background syncqueue executor; best-effort
// jobs (server-side logout) run synchronously on the caller instead. Useful
// for short-lived CLIs.
func WithoutExecutor() Option {
	return func(c *Client) error {
		c.exec = inlineExecutor{}
		return nil
	}
}

// WithSessionExpiredHandler registers the side effect of a forced logout,
// typically a navigation to the unauthenticated landing view.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) error {
		c.onSessionExpired = fn
		return nil
	}
}
