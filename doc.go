// Package goSession is the client-side session layer of the TaskFlow client.
//
// A [Session] holds one bearer credential in a [credential.Store], derives
// session state from it on every query, attaches it to every API request,
// caches the current user's profile by subject, and retires it on logout.
//
// Data flow: Login returns a credential, the caller stores it, the
// authenticated client reads it on the next request, FetchCurrentUser
// resolves its subject to a profile, guards gate routes on it, and Logout
// clears the store and every cached profile in one step.
//
// Session methods are safe for concurrent use after [Builder.Build].
//
// # Architecture boundaries
//
// goSession composes the sub-packages: credential (storage), token
// (decoding), guard (derived state), transport (authenticated client), api
// (wire calls) and navigation (route decisions). Audit dispatch and metric
// storage live under internal/.
//
// # What this package must NOT do
//
//   - Verify credential signatures; the server does that.
//   - Retry session operations or intercept 401 responses.
//   - Memoize session state derived from the store.
//   - Persist anything other than the raw credential.
package goSession
