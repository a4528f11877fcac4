package retry_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/easierlabs/apicore/retry"
)

func testEngine(maxRetries int) *retry.Engine {
	e := retry.New()
	e.MaxRetries = maxRetries
	e.BaseInterval = time.Millisecond

	return e
}

func TestEngine_Execute(t *testing.T) {
	for _, test := range []struct {
		name           string
		resp           int
		expectAttempts int
		expectError    bool
	}{
		{"200s return immediately", http.StatusOK, 1, false},
		{"201s return immediately", http.StatusCreated, 1, false},
		{"400s fail early", http.StatusBadRequest, 1, true},
		{"404s fail early", http.StatusNotFound, 1, true},
		{"429s fail early", http.StatusTooManyRequests, 1, true},
		{"500s keep retrying", http.StatusInternalServerError, 3, true},
		{"503s keep retrying", http.StatusServiceUnavailable, 3, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.resp)
			}))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			if err != nil {
				t.Fatal(err)
			}

			ctx := retry.NewContext()

			_, err = testEngine(2).Execute(ctx, ts.Client(), req)
			if test.expectError == (err == nil) {
				t.Errorf("expected error: %v, received %#v", test.expectError, err)
			}

			attempts, ok := retry.AttemptsFromContext(ctx)
			if !ok {
				t.Fatal("expected `attempts` in the context")
			}

			if test.expectAttempts != attempts {
				t.Errorf("expected %d attempts, received %d", test.expectAttempts, attempts)
			}
		})
	}
}

func TestEngine_Execute_SucceedsAfterServerErrors(t *testing.T) {
	var calls int

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++

		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := retry.NewContext()

	resp, err := testEngine(3).Execute(ctx, ts.Client(), req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if calls != 3 {
		t.Errorf("expected 3 calls, received %d", calls)
	}

	dur, ok := retry.SuccessfulDurationFromContext(ctx)
	if !ok || dur == 0 {
		t.Error("expected a non-zero successful duration in the context")
	}
}

func TestEngine_Execute_ExhaustionReportsLastStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = testEngine(1).Execute(context.Background(), ts.Client(), req)

	var statusErr *retry.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a StatusError, received %#v", err)
	}

	if statusErr.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, received %d", http.StatusBadGateway, statusErr.Code)
	}
}

func TestEngine_Execute_TransportFailuresAreRetried(t *testing.T) {
	// A server that is already closed produces connection errors.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx := retry.NewContext()

	_, err = testEngine(2).Execute(ctx, http.DefaultClient, req)
	if err == nil {
		t.Fatal("expected a transport error")
	}

	attempts, _ := retry.AttemptsFromContext(ctx)
	if attempts != 3 {
		t.Errorf("expected 3 attempts, received %d", attempts)
	}
}

func TestEngine_Execute_AttemptsAreByteIdentical(t *testing.T) {
	var (
		bodies  []string
		headers []string
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		io.Copy(buf, r.Body)
		r.Body.Close()

		bodies = append(bodies, buf.String())
		headers = append(headers, r.Header.Get("X-Fixed"))

		if len(bodies) < 3 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	payload := `{"msg":"hello, world!"}`

	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewReader([]byte(payload)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Fixed", "constant")

	resp, err := testEngine(3).Execute(context.Background(), ts.Client(), req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if len(bodies) != 3 {
		t.Fatalf("expected 3 attempts, received %d", len(bodies))
	}

	for i := range bodies {
		if bodies[i] != payload {
			t.Errorf("attempt %d: expected body %q, received %q", i+1, payload, bodies[i])
		}

		if headers[i] != "constant" {
			t.Errorf("attempt %d: expected header %q, received %q", i+1, "constant", headers[i])
		}
	}
}

func TestEngine_Execute_BackoffDelaysAccumulate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	e := retry.New()
	e.MaxRetries = 2
	e.BaseInterval = 20 * time.Millisecond

	start := time.Now()
	_, err = e.Execute(context.Background(), ts.Client(), req)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected the call to fail")
	}

	// Two waits: 20ms then 40ms.
	if elapsed < 60*time.Millisecond {
		t.Errorf("expected at least 60ms of backoff, elapsed %s", elapsed)
	}
}

func TestEngine_Execute_ContextCancellationStopsRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	e := retry.New()
	e.MaxRetries = 3
	e.BaseInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = e.Execute(ctx, ts.Client(), req)

	if err == nil {
		t.Fatal("expected the call to fail")
	}

	if time.Since(start) > 5*time.Second {
		t.Error("cancellation should abort the backoff wait")
	}
}
