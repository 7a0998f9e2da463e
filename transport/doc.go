// Package transport builds the authenticated HTTP client used for every call
// to the remote API.
//
// Trippers are http.RoundTripper middleware composed with [Chain]. The
// [Authorization] tripper reads the credential store on every request and
// attaches "Authorization: Bearer <token>" to a clone of the request.
//
// # What this package must NOT do
//
//   - Retry requests or react to 401/403 responses.
//   - Mutate the caller's *http.Request.
//   - Cache the credential between requests.
package transport
