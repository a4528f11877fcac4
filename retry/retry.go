// Package retry executes built requests against a transport, classifying each
// outcome and retrying transient failures with exponential backoff.
//
// Classification is by status class: 2xx returns immediately, 5xx and
// transport-level errors are retried until the attempt ceiling, and anything
// else ends the call on the spot. Retries replay a byte-identical request;
// nothing upstream (auth, middleware) is re-run.
package retry

import (
	"context"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRetries is the number of retries after the initial attempt,
	// for 4 attempts in total.
	DefaultMaxRetries = 3

	// DefaultBaseInterval is the wait before the first retry. Subsequent
	// waits double: 2s, 4s, 8s.
	DefaultBaseInterval = 2 * time.Second
)

// A Doer executes a single transport attempt. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// An Engine runs requests with bounded retry. The zero value is unusable; use
// New and adjust fields before the first Execute call.
type Engine struct {
	// MaxRetries is the retry ceiling; MaxRetries+1 is the total number of
	// attempts a single Execute call may make.
	MaxRetries int

	// BaseInterval is the wait before the first retry; each further wait
	// doubles it, with no jitter.
	BaseInterval time.Duration

	// Logger receives a warning per retryable failure. Defaults to a no-op.
	Logger zerolog.Logger
}

// New returns an Engine with the default policy: 3 retries, 2s/4s/8s waits.
func New() *Engine {
	return &Engine{
		MaxRetries:   DefaultMaxRetries,
		BaseInterval: DefaultBaseInterval,
		Logger:       zerolog.Nop(),
	}
}

func (e *Engine) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.BaseInterval
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = e.BaseInterval << uint(e.MaxRetries)

	return bo
}

// attemptRequest produces the request for one attempt: a clone of req with a
// fresh body from GetBody, so every attempt sends identical bytes even when a
// previous attempt consumed the body part-way.
func attemptRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	r := req.Clone(ctx)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		r.Body = body
	}

	return r, nil
}

// drain discards and closes a response body we are not going to return, so
// the transport can reuse the connection for the retry.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}

// Execute runs req against the transport until it succeeds, fails terminally,
// or the attempt ceiling is reached. On exhaustion the error of the last
// attempt is returned as-is, so callers still see the final status or
// transport error.
//
// If ctx was created with NewContext, per-call attempt metadata is recorded
// into it as a side channel.
func (e *Engine) Execute(ctx context.Context, transport Doer, req *http.Request) (*http.Response, error) {
	metadata, ok := getCallMetadata(ctx)
	if !ok {
		metadata = new(callMetadata)
	}

	metadata.attempts = 0

	operation := func() (*http.Response, error) {
		metadata.attempts++

		attempt, err := attemptRequest(ctx, req)
		if err != nil {
			// Couldn't rebuild the body; retrying can't fix that.
			return nil, backoff.Permanent(err)
		}

		start := time.Now()
		resp, err := transport.Do(attempt)
		elapsed := time.Since(start)

		if err != nil {
			// Connection resets, timeouts, and friends may be transient.
			e.Logger.Warn().
				Int("attempt", metadata.attempts).
				Err(err).
				Msg("transport failure")

			return nil, err
		}

		switch {
		case resp.StatusCode/100 == 2:
			metadata.successfulDuration = elapsed

			return resp, nil

		case resp.StatusCode/100 == 5:
			drain(resp)
			e.Logger.Warn().
				Int("attempt", metadata.attempts).
				Int("status", resp.StatusCode).
				Msg("server error")

			return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}

		default:
			// Client errors, redirects the transport didn't follow, and
			// anything else outside 2xx/5xx end the call immediately.
			drain(resp)

			return nil, backoff.Permanent(&StatusError{Code: resp.StatusCode, Status: resp.Status})
		}
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(e.newBackOff()),
		backoff.WithMaxTries(uint(e.MaxRetries)+1),
	)
}
