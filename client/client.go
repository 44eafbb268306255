package client

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httputil"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/s153756/My-Friend-Calendar/internal/syncqueue"
	"github.com/s153756/My-Friend-Calendar/session"
)

//--------------------------------------------------------------------
// debugTransport – optional HTTP round-trip logger
//--------------------------------------------------------------------

type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if os.Getenv("MFCAL_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		reqDump, err := httputil.DumpRequestOut(req, true)
		if err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
		}
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		if os.Getenv("MFCAL_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
			log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		}
		return nil, err
	}

	if os.Getenv("MFCAL_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		respDump, err := httputil.DumpResponse(resp, true)
		if err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
		}
	}
	return resp, nil
}

//--------------------------------------------------------------------
// Executor abstraction (internal)
//--------------------------------------------------------------------

type executor interface {
	Submit(ctx context.Context, key string, job syncqueue.Job) error
	Stop()
}

// inlineExecutor runs jobs synchronously on the caller; used by short-lived
// clients that opted out of background workers.
type inlineExecutor struct{}

func (inlineExecutor) Submit(ctx context.Context, key string, job syncqueue.Job) error {
	if err := job.Run(ctx); err != nil {
		log.Warn().Str("key", key).Err(err).Msg("inline job failed")
	}
	return nil
}
func (inlineExecutor) Stop() {}

//--------------------------------------------------------------------
// Client core
//--------------------------------------------------------------------

// Client talks to the My-Friend-Calendar API. All authenticated traffic runs
// through the request gateway (gateway.go), which attaches the session's
// bearer token and recovers from expiry with a single refresh-and-retry.
//
// The credential store is injected rather than looked up ambiently so tests
// and embedders control the session lifecycle.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	exec    executor

	// onSessionExpired is the navigation side effect of a forced logout: the
	// embedding UI redirects to its unauthenticated landing view.
	onSessionExpired func()

	refreshMu sync.Mutex
	refresh   *refreshCall

	closedOnce uint32
}

// New constructs a Client with optional functional arguments. The HTTP
// client owns a cookie jar so the httpOnly refresh credential and the
// readable anti-forgery cookie set at login travel automatically.
func New(base string, store *session.Store, opts ...Option) *Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	c := &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second, Jar: jar},
		store:   store,
	}

	// Auto-enable debug via env variable without changing code.
	if os.Getenv("MFCAL_DEBUG") == "true" || os.Getenv("DEBUG") == "true" {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor()
	}
	return c
}

// Store exposes the injected credential store.
func (c *Client) Store() *session.Store { return c.store }

// Close stops the background executor (if any). Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// newDefaultExecutor constructs the syncqueue executor from env config.
func newDefaultExecutor() *syncqueue.Executor {
	cfg, err := syncqueue.LoadConfig()
	if err != nil {
		log.Warn().Err(err).Msg("invalid syncqueue config, using defaults")
		cfg = syncqueue.Config{}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg("background job failed")
		}
	}
	return syncqueue.NewExecutor(cfg)
}
