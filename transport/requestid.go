package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-Id"

// RequestID sets a random X-Request-Id on requests that do not carry one.
func RequestID() Constructor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			out := req.Clone(req.Context())
			out.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(out)
		})
	}
}
