package transport

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Logging logs one line per request. Header values are never logged.
func Logging(log zerolog.Logger) Constructor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			evt := log.Debug()
			if err != nil {
				evt = log.Warn().Err(err)
			}
			evt = evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", req.Header.Get(RequestIDHeader)).
				Dur("duration", time.Since(start))
			if resp != nil {
				evt = evt.Int("status", resp.StatusCode)
			}
			evt.Msg("api request")
			return resp, err
		})
	}
}

// Observe reports the latency and outcome of every request to fn.
func Observe(fn func(req *http.Request, status int, d time.Duration, err error)) Constructor {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			if fn != nil {
				fn(req, status, time.Since(start), err)
			}
			return resp, err
		})
	}
}
