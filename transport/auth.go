package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goSession/credential"
)

// ErrCredentialUnavailable is returned when the credential store cannot be read.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// AuthorizationHeader is the header the credential is sent in.
const AuthorizationHeader = "Authorization"

type authConfig struct {
	omitEmpty bool
}

// AuthOption configures the Authorization tripper.
type AuthOption func(*authConfig)

// OmitEmptyAuthorization drops the header when no credential is held instead
// of sending "Bearer " with an empty value.
func OmitEmptyAuthorization(omit bool) AuthOption {
	return func(c *authConfig) {
		c.omitEmpty = omit
	}
}

type optionalKey struct{}

// CredentialOptional marks requests made with ctx as able to proceed without
// a credential. When the store cannot be read they are sent as if it were
// empty instead of failing with ErrCredentialUnavailable.
func CredentialOptional(ctx context.Context) context.Context {
	return context.WithValue(ctx, optionalKey{}, true)
}

func credentialOptional(ctx context.Context) bool {
	v, _ := ctx.Value(optionalKey{}).(bool)
	return v
}

// Authorization returns a tripper that sets the bearer header from store on
// every request. The header is written to a clone; the caller's request is
// left untouched. By default the header is set even when the store is empty.
func Authorization(store credential.Store, opts ...AuthOption) Constructor {
	var cfg authConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			var tok string
			if store != nil {
				t, ok, err := store.Get(req.Context())
				if err != nil && !credentialOptional(req.Context()) {
					closeBody(req)
					return nil, fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
				}
				if err == nil && ok {
					tok = t
				}
			}

			out := req.Clone(req.Context())
			if tok == "" && cfg.omitEmpty {
				out.Header.Del(AuthorizationHeader)
			} else {
				out.Header.Set(AuthorizationHeader, "Bearer "+tok)
			}
			return next.RoundTrip(out)
		})
	}
}

// A RoundTripper must always close the request body, including on errors.
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
