// Package middleware gates a client's own HTTP surface on the local session.
//
// # Guards
//
//   - [Guard]: resolves every request path against the session and
//     answers redirects with 303 See Other.
//   - [RequireSession]: rejects requests without a valid session with 401,
//     for endpoints that are called rather than navigated to.
//
// Both read session state once per request through [Resolver], which
// *goSession.Session implements, decide from that snapshot and inject it
// into the request context.
//
// This package never reads credentials or talks to the remote API. Every
// decision comes from the resolver at request time.
package middleware
