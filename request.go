package apicore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// NewRequest wraps http.NewRequestWithContext, buffering the body and setting
// a `GetBody` function on the request.
//
// The retry engine replays requests through `GetBody`, so every attempt sends
// the full payload even when an earlier attempt failed part-way through an
// upload. Without this, a request built over a plain reader would retry with
// whatever bytes the first attempt left unread.
//
// The body is held in memory until the request is garbage collected; for very
// large payloads, build the request yourself and provide a cheaper `GetBody`.
func NewRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	buf := new(bytes.Buffer)

	if body != nil {
		if _, err := io.Copy(buf, body); err != nil {
			return nil, fmt.Errorf("buffering request body: %w", err)
		}
	}

	bb := buf.Bytes()

	req, err := http.NewRequestWithContext(ctx, method, url, buf)
	if err != nil {
		return nil, err
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(bb)), nil
	}

	return req, nil
}

// newJSONRequest builds a replayable request carrying body as JSON.
func newJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := NewRequest(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
