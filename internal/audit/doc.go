// Package audit relays session lifecycle events to a sink without blocking
// the operation that produced them.
//
// # Components
//
//   - [Sink] receives events (channel, JSON lines, zerolog, no-op).
//   - [Dispatcher] is a buffered async relay. With DropIfFull it drops events
//     that find the buffer full, except the types listed in Config.Retain,
//     which always wait for room. Flush is a barrier for short-lived
//     processes that must not lose queued events on exit.
//   - [Event] is one record: timestamp, type, subject, outcome, metadata.
//
// # What this package must NOT do
//
//   - Decide which events are emitted; the session does that.
//   - Import goSession or any sibling package.
//   - Record credentials or passwords.
package audit
