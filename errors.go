package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/transport"
)

var (
	// ErrAuthenticationFailed is returned by Login when the server rejects the credentials.
	ErrAuthenticationFailed = api.ErrAuthenticationFailed
	// ErrUnauthorized is returned when an authenticated call is rejected (401/403).
	ErrUnauthorized = api.ErrUnauthorized
	// ErrNotFound is returned when the requested profile does not exist.
	ErrNotFound = api.ErrNotFound
	// ErrTransport is returned when the API could not be reached.
	ErrTransport = api.ErrTransport
	// ErrMalformedResponse is returned when the API answered with an undecodable body.
	ErrMalformedResponse = api.ErrMalformedResponse
	// ErrStoreUnavailable is returned when the credential store cannot be read or written.
	ErrStoreUnavailable = credential.ErrStoreUnavailable
	// ErrCredentialUnavailable is returned by the authenticated client when the store fails.
	ErrCredentialUnavailable = transport.ErrCredentialUnavailable
	// ErrNilCredential is returned by StoreCredential for a nil or empty credential.
	ErrNilCredential = errors.New("nil credential")
	// ErrUnhealthy is returned by WaitHealthy when the service never reported healthy.
	ErrUnhealthy = errors.New("service unhealthy")
)
