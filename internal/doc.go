// Package internal holds helpers private to goSession.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - metrics: lock-free counters and the API latency histogram
//   - testapi: in-process task API used by tests and the example console
package internal
