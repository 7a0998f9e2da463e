package transport

import "net/http"

// Constructor wraps a RoundTripper.
type Constructor func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain is an immutable list of trippers. The first constructor sees the
// request first.
type Chain struct {
	constructors []Constructor
}

// NewChain returns a Chain of constructors.
func NewChain(constructors ...Constructor) Chain {
	return Chain{append([]Constructor(nil), constructors...)}
}

// Then wraps rt with every tripper in the chain. A nil rt selects
// http.DefaultTransport.
func (c Chain) Then(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(c.constructors) - 1; i >= 0; i-- {
		rt = c.constructors[i](rt)
	}
	return rt
}

// Append returns a new chain with constructors added after the existing ones.
func (c Chain) Append(constructors ...Constructor) Chain {
	out := make([]Constructor, 0, len(c.constructors)+len(constructors))
	out = append(out, c.constructors...)
	out = append(out, constructors...)
	return Chain{out}
}
