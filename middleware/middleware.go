// Package middleware implements the ordered chain of request transforms a
// client runs after authentication and before execution.
//
// The chain is append-only: transforms are applied in registration order,
// each seeing the output of the previous one, and there is no removal
// operation. Transforms are expected to always succeed; anything a transform
// does beyond returning a request (logging, counters) is its author's
// business and is not sequenced by the chain.
package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// A Transform rewrites a request in progress. It may add or remove headers or
// otherwise reshape the request, but must return a usable request. Returning
// nil is treated as passing the input through unchanged.
type Transform func(*http.Request) *http.Request

type entry struct {
	name string
	fn   Transform
}

// A Chain is an ordered, append-only sequence of named transforms.
//
// A Chain is not safe for concurrent mutation; the owning client serializes
// access to it.
type Chain struct {
	entries []entry
}

// Use appends a transform to the chain. The name is only used for
// identification in logs and listings; it does not have to be unique.
func (c *Chain) Use(name string, fn Transform) {
	c.entries = append(c.entries, entry{name: name, fn: fn})
}

// Apply folds every registered transform over req, left to right, in
// registration order.
func (c *Chain) Apply(req *http.Request) *http.Request {
	for _, e := range c.entries {
		if next := e.fn(req); next != nil {
			req = next
		}
	}

	return req
}

// Len returns the number of registered transforms.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Names returns the registered transform names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}

	return names
}

// RequestID returns a transform stamping a fresh `X-Request-ID` header on
// requests that don't already carry one, so calls can be correlated across
// services.
func RequestID() Transform {
	return func(req *http.Request) *http.Request {
		if req.Header.Get("X-Request-ID") == "" {
			req.Header.Set("X-Request-ID", uuid.NewString())
		}

		return req
	}
}
