package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/s153756/My-Friend-Calendar/session"
)

func seedCsrfCookie(t *testing.T, c *Client, base string) {
	t.Helper()
	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: "csrf_refresh_token", Value: "csrf-abc"}})
}

func TestGatewayAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	store := session.NewStore(session.Options{})
	store.Login("tok-1", session.User{ID: "u1", Email: "a@b.se"})
	c := New(srv.URL, store, WithoutExecutor())
	defer func() { _ = c.Close() }()

	if _, err := c.ListEvents(context.Background()); err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Bearer tok-1")
	}
}

func TestGatewayRefreshesOnceThenReplays(t *testing.T) {
	var eventCalls, refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)
			if r.Header.Get("X-CSRF-TOKEN") != "csrf-abc" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-fresh"})
		case "/api/calendar/events/":
			n := atomic.AddInt32(&eventCalls, 1)
			if n == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok-fresh" {
				t.Errorf("replay Authorization = %q, want refreshed token", got)
			}
			_, _ = w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := session.NewStore(session.Options{})
	store.Login("tok-stale", session.User{ID: "u1", Email: "a@b.se"})
	c := New(srv.URL, store, WithoutExecutor())
	defer func() { _ = c.Close() }()
	seedCsrfCookie(t, c, srv.URL)

	if _, err := c.ListEvents(context.Background()); err != nil {
		t.Fatalf("ListEvents after refresh: %v", err)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&eventCalls); got != 2 {
		t.Fatalf("event calls = %d, want 2 (original + one replay)", got)
	}
	if store.AccessToken() != "tok-fresh" {
		t.Fatalf("stored token = %q, want refreshed", store.AccessToken())
	}
}

func TestGatewaySecondRejectionForcesLogout(t *testing.T) {
	var refreshCalls int32
	var expired int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-fresh"})
			return
		}
		// The API rejects every data request, refreshed token or not.
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := session.NewStore(session.Options{})
	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	c := New(srv.URL, store, WithoutExecutor(),
		WithSessionExpiredHandler(func() { atomic.AddInt32(&expired, 1) }))
	defer func() { _ = c.Close() }()
	seedCsrfCookie(t, c, srv.URL)

	_, err := c.ListEvents(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Fatalf("refresh calls = %d, want exactly 1 (no second refresh)", got)
	}
	if store.Session().Authenticated() {
		t.Fatal("session still authenticated after forced logout")
	}
	if atomic.LoadInt32(&expired) != 1 {
		t.Fatal("session-expired handler not invoked")
	}
}

func TestGatewayRefreshFailureForcesLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := session.NewStore(session.Options{})
	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	c := New(srv.URL, store, WithoutExecutor())
	defer func() { _ = c.Close() }()
	seedCsrfCookie(t, c, srv.URL)

	_, err := c.ListEvents(context.Background())
	if !IsSessionExpired(err) {
		t.Fatalf("err = %v, want session-expired", err)
	}
	if store.AccessToken() != "" {
		t.Fatal("access token survived forced logout")
	}
	if store.Session().Authenticated() {
		t.Fatal("identity survived forced logout")
	}
}

func TestGatewayPassesThroughNon401Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not yours"})
	}))
	defer srv.Close()

	store := session.NewStore(session.Options{})
	store.Login("tok", session.User{ID: "u1", Email: "a@b.se"})
	c := New(srv.URL, store, WithoutExecutor())
	defer func() { _ = c.Close() }()

	_, err := c.ListEvents(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", apiErr.StatusCode)
	}
	if !store.Session().Authenticated() {
		t.Fatal("non-401 error must not clear the session")
	}
}
