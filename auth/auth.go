// Package auth provides the credential strategies a client may attach to
// outgoing requests: bearer tokens, HTTP basic auth, and arbitrary
// caller-supplied headers.
//
// A client holds at most one Strategy at a time; setting a new one fully
// replaces the previous one. Strategies only write headers - they never touch
// the request method, target, or body.
package auth

import "net/http"

// A Strategy attaches credentials to a request in progress.
type Strategy interface {
	Apply(req *http.Request)
}

type bearer struct {
	token string
}

func (b bearer) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.token)
}

// Bearer returns a Strategy setting `Authorization: Bearer <token>`.
func Bearer(token string) Strategy {
	return bearer{token: token}
}

type basic struct {
	username string
	password string
}

func (b basic) Apply(req *http.Request) {
	req.SetBasicAuth(b.username, b.password)
}

// Basic returns a Strategy setting standard basic-auth credentials.
func Basic(username, password string) Strategy {
	return basic{username: username, password: password}
}

type custom struct {
	name  string
	value string
}

func (c custom) Apply(req *http.Request) {
	// The header name is taken as-is; a caller choosing a standard header
	// name overwrites it, last write wins.
	req.Header.Set(c.name, c.value)
}

// Custom returns a Strategy setting an arbitrary `name: value` header. The
// pair is passed through uninspected.
func Custom(name, value string) Strategy {
	return custom{name: name, value: value}
}

// Parse maps a string scheme tag onto a Strategy, for callers driving the
// client through a non-Go surface. Field use per scheme:
//
//	"Bearer": value is the token, key is ignored
//	"Basic":  key is the username, value the password
//	"Custom": key is the header name, value the header value
//
// An unrecognized scheme returns ok=false and the caller should keep whatever
// strategy was previously active.
func Parse(scheme, key, value string) (Strategy, bool) {
	switch scheme {
	case "Bearer":
		return Bearer(value), true
	case "Basic":
		return Basic(key, value), true
	case "Custom":
		return Custom(key, value), true
	default:
		return nil, false
	}
}
