package apicore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/easierlabs/apicore/auth"
	"github.com/easierlabs/apicore/middleware"
	"github.com/easierlabs/apicore/retry"
)

// DefaultTimeout is the per-attempt transport timeout.
const DefaultTimeout = 30 * time.Second

// ErrUnsupportedMethod is returned by Send for any method outside POST/PUT.
// No request is issued in that case.
var ErrUnsupportedMethod = errors.New("unsupported method")

// A Client issues requests against a single base endpoint. Each logical call
// runs synchronously: build, authenticate, transform, execute with retry,
// decode. Independent calls on one Client may run concurrently; SetAuth and
// Use are guarded, and only affect requests built after they return.
type Client struct {
	baseURL    string
	httpClient *http.Client
	engine     *retry.Engine
	limiter    *rate.Limiter
	log        zerolog.Logger

	mu       sync.RWMutex // guards strategy and chain
	strategy auth.Strategy
	chain    middleware.Chain
}

// An Option configures a Client at construction time.
type Option func(*Client)

// WithAuth sets the initial credential strategy.
func WithAuth(s auth.Strategy) Option {
	return func(c *Client) { c.strategy = s }
}

// WithMiddleware appends a transform to the chain.
func WithMiddleware(name string, fn middleware.Transform) Option {
	return func(c *Client) { c.chain.Use(name, fn) }
}

// WithHTTPClient replaces the transport. The caller keeps responsibility for
// its timeout; without one, a hung attempt blocks the whole call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides the per-attempt transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryPolicy overrides the retry ceiling and the base backoff interval.
func WithRetryPolicy(maxRetries int, base time.Duration) Option {
	return func(c *Client) {
		c.engine.MaxRetries = maxRetries
		c.engine.BaseInterval = base
	}
}

// WithLogger sets the structured logger for the client and its retry engine.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRateLimit caps the rate at which logical calls enter the transport,
// smoothing bursts from the caller. Waiting counts against the call's
// context, not the transport timeout.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// New returns a Client for the given base URL. The base URL is prepended
// verbatim to every path; trailing or doubled slashes are the caller's
// responsibility.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: cleanhttp.DefaultPooledTransport(),
			Timeout:   DefaultTimeout,
		},
		engine: retry.New(),
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.engine.Logger = c.log

	return c
}

// SetAuth replaces the active credential strategy. Passing nil removes auth
// entirely. In-flight calls keep the credentials their request was built
// with.
func (c *Client) SetAuth(s auth.Strategy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.strategy = s
}

// Use appends a transform to the middleware chain. There is no removal; the
// chain only grows, and registration order is the order transforms run in.
func (c *Client) Use(name string, fn middleware.Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chain.Use(name, fn)
}

// Fetch issues a GET against base URL + path and decodes the JSON response.
func (c *Client) Fetch(ctx context.Context, path string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	return c.call(ctx, req)
}

// Send issues a POST or PUT with a JSON-encoded body against base URL + path
// and decodes the JSON response. Any other method fails immediately with
// ErrUnsupportedMethod.
func (c *Client) Send(ctx context.Context, path, method string, body any) (any, error) {
	switch method {
	case http.MethodPost, http.MethodPut:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	req, err := newJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	return c.call(ctx, req)
}

// call runs the fixed pipeline on a built request: auth, then middleware over
// the authenticated request, then the retry engine, then decode.
func (c *Client) call(ctx context.Context, req *http.Request) (any, error) {
	c.mu.RLock()
	if c.strategy != nil {
		c.strategy.Apply(req)
	}
	req = c.chain.Apply(req)
	c.mu.RUnlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("issuing request")

	ctx = retry.EnsureMetadata(ctx)

	resp, err := c.engine.Execute(ctx, c.httpClient, req)
	attempts, _ := retry.AttemptsFromContext(ctx)

	if err != nil {
		c.log.Warn().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Int("attempts", attempts).
			Err(err).
			Msg("request failed")

		return nil, err
	}
	defer resp.Body.Close()

	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("attempts", attempts).
		Msg("request succeeded")

	return out, nil
}
