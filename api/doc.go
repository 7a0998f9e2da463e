// Package api is the wire client of the TaskFlow REST API: login, user lookup
// and health.
//
// The client sends requests through whatever *http.Client it is given. In
// goSession that is the authenticated client from the transport package, so
// the login call also carries the current (possibly stale) bearer header; the
// server ignores it on that endpoint.
//
// Errors are classified with sentinels: [ErrAuthenticationFailed] for a
// rejected login, [ErrUnauthorized] and [ErrNotFound] for rejected lookups,
// [ErrTransport] when no response was received and [ErrMalformedResponse] when
// the body cannot be decoded. Nothing is retried.
package api
