// Package boundary implements the Go half of the C-compatible surface: a
// registry mapping opaque integer handles to clients, input validation for
// strings crossing the boundary, and collapse of every failure into a binary
// not-ok signal.
//
// Nothing here may let a panic escape: the C shim in cmd/libapicore is a thin
// veneer over this package, and a Go panic crossing into a foreign caller
// would take the whole process down.
package boundary

import (
	"context"
	"encoding/json"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/easierlabs/apicore"
	"github.com/easierlabs/apicore/auth"
)

// A Handle identifies a client owned by a foreign caller. The zero Handle is
// never issued and is safe to pass to any Registry method.
type Handle uintptr

// A Registry owns the clients created across the boundary. Handles are plain
// counters, never reused within a Registry's lifetime, so a stale handle
// fails lookup instead of reaching a recycled client.
type Registry struct {
	// Logger receives boundary-level failures. Set it before issuing the
	// first handle; defaults to a no-op.
	Logger zerolog.Logger

	mu      sync.Mutex
	next    Handle
	clients map[Handle]*apicore.Client
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Logger:  zerolog.Nop(),
		clients: make(map[Handle]*apicore.Client),
	}
}

// Create allocates a client for baseURL and returns its handle. The caller
// owns the handle and must Destroy it exactly once. Returns the zero Handle
// when baseURL is not valid UTF-8.
func (r *Registry) Create(baseURL string) Handle {
	if !utf8.ValidString(baseURL) {
		r.Logger.Warn().Msg("create rejected: base URL is not valid UTF-8")

		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.clients[r.next] = apicore.New(baseURL, apicore.WithLogger(r.Logger))

	return r.next
}

// Destroy releases the client behind h. Unknown or already-destroyed handles
// are a no-op.
func (r *Registry) Destroy(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, h)
}

// Client returns the client behind h, for embedding callers that want to
// configure it beyond what the C surface exposes (middleware, retry policy).
func (r *Registry) Client(h Handle) (*apicore.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[h]

	return c, ok
}

// SetAuth replaces the client's credential strategy. An unrecognized scheme
// tag is silently ignored and the previous strategy stays active. Malformed
// input strings are ignored the same way.
func (r *Registry) SetAuth(h Handle, scheme, key, value string) {
	if !utf8.ValidString(scheme) || !utf8.ValidString(key) || !utf8.ValidString(value) {
		return
	}

	c, ok := r.Client(h)
	if !ok {
		return
	}

	s, ok := auth.Parse(scheme, key, value)
	if !ok {
		return
	}

	c.SetAuth(s)
}

// Fetch runs a GET through the client behind h and returns the result
// re-serialized as JSON. Any failure - unknown handle, malformed input,
// transport, HTTP, or decode error - collapses to ok=false; the specific
// error does not cross the boundary.
func (r *Registry) Fetch(h Handle, path string) (result string, ok bool) {
	defer r.contain(&ok)

	c, found := r.Client(h)
	if !found || !utf8.ValidString(path) {
		return "", false
	}

	out, err := c.Fetch(context.Background(), path)
	if err != nil {
		return "", false
	}

	return encode(out)
}

// Send runs a POST or PUT with a JSON body through the client behind h.
// The body must be a valid JSON document; anything else fails the call.
func (r *Registry) Send(h Handle, path, method, body string) (result string, ok bool) {
	defer r.contain(&ok)

	c, found := r.Client(h)
	if !found || !utf8.ValidString(path) || !utf8.ValidString(method) || !utf8.ValidString(body) {
		return "", false
	}

	var data any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return "", false
	}

	out, err := c.Send(context.Background(), path, method, data)
	if err != nil {
		return "", false
	}

	return encode(out)
}

// contain keeps panics on the Go side of the boundary, turning them into the
// ordinary failure signal.
func (r *Registry) contain(ok *bool) {
	if p := recover(); p != nil {
		r.Logger.Error().Any("panic", p).Msg("panic contained at boundary")
		*ok = false
	}
}

func encode(out any) (string, bool) {
	encoded, err := json.Marshal(out)
	if err != nil {
		return "", false
	}

	return string(encoded), true
}
