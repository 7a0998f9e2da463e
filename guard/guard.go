// Package guard derives session state from the credential store on demand.
//
// Every query re-reads the store and re-decodes the credential. Nothing is
// memoized: expiry is a function of the current time, and the store is the
// only source of truth. Store errors and undecodable credentials fail closed.
package guard

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/token"
)

// State is a point-in-time projection of the session.
type State struct {
	Authenticated bool
	Expired       bool
	Subject       string
	ExpiresAt     time.Time
}

// Valid reports whether the session may enter authenticated routes.
func (s State) Valid() bool {
	return s.Authenticated && !s.Expired
}

// Guard answers session questions from a credential store.
type Guard struct {
	store credential.Store
	now   func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// New returns a Guard reading from store.
func New(store credential.Store, opts ...Option) *Guard {
	g := &Guard{store: store, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) credential(ctx context.Context) (string, bool) {
	if g == nil || g.store == nil {
		return "", false
	}
	tok, ok, err := g.store.Get(ctx)
	if err != nil || !ok || tok == "" {
		return "", false
	}
	return tok, true
}

// IsAuthenticated reports whether a credential is held. It does not look at
// the credential's contents.
func (g *Guard) IsAuthenticated(ctx context.Context) bool {
	_, ok := g.credential(ctx)
	return ok
}

// Payload returns the decoded payload of the current credential.
func (g *Guard) Payload(ctx context.Context) (*token.Payload, bool) {
	tok, ok := g.credential(ctx)
	if !ok {
		return nil, false
	}
	return token.Decode(tok)
}

// IsExpired reports true when no credential is held, when it cannot be
// decoded, or when now is at or past its expiry.
func (g *Guard) IsExpired(ctx context.Context) bool {
	p, ok := g.Payload(ctx)
	if !ok {
		return true
	}
	return p.ExpiredAt(g.now())
}

// Subject returns the subject of the current credential. Expiry is not
// checked.
func (g *Guard) Subject(ctx context.Context) (string, bool) {
	p, ok := g.Payload(ctx)
	if !ok {
		return "", false
	}
	return p.Subject, true
}

// State reads the store once and returns every derived value together.
func (g *Guard) State(ctx context.Context) State {
	tok, ok := g.credential(ctx)
	if !ok {
		return State{Expired: true}
	}
	st := State{Authenticated: true, Expired: true}
	p, ok := token.Decode(tok)
	if !ok {
		return st
	}
	st.Subject = p.Subject
	st.ExpiresAt = p.ExpiresAt
	st.Expired = p.ExpiredAt(g.now())
	return st
}
