package transport

import (
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/rs/zerolog"
)

// ClientOptions configures [NewClient].
type ClientOptions struct {
	Base                   http.RoundTripper
	Timeout                time.Duration
	Logger                 zerolog.Logger
	OmitEmptyAuthorization bool
	Observer               func(req *http.Request, status int, d time.Duration, err error)
}

// NewClient returns an *http.Client that authenticates every request from store.
// The chain runs request id, logging, observation, then authorization.
func NewClient(store credential.Store, opts ClientOptions) *http.Client {
	chain := NewChain(
		RequestID(),
		Logging(opts.Logger),
	)
	if opts.Observer != nil {
		chain = chain.Append(Observe(opts.Observer))
	}
	chain = chain.Append(Authorization(store, OmitEmptyAuthorization(opts.OmitEmptyAuthorization)))

	return &http.Client{
		Transport: chain.Then(opts.Base),
		Timeout:   opts.Timeout,
	}
}
