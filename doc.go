/*
Package apicore is a small embeddable HTTP client core: it issues GET/POST/PUT
requests against a configured base endpoint, applies a pluggable auth strategy
and an ordered chain of request transforms, retries transient failures with
exponential backoff, and decodes responses as structured JSON values.

It is designed to be driven either directly from Go or from a foreign caller
through the c-shared library under cmd/libapicore, where the caller owns
opaque handles to clients and to returned strings.
*/
package apicore
