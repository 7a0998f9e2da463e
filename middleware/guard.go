package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/navigation"
)

// Resolver is the session view the guards need. ResolveState must decide
// from st alone so that one request sees one snapshot.
type Resolver interface {
	State(ctx context.Context) guard.State
	ResolveState(st guard.State, path string) navigation.Decision
}

type stateContextKey struct{}

// StateFromContext returns the session state observed by a guard.
func StateFromContext(ctx context.Context) (guard.State, bool) {
	st, ok := ctx.Value(stateContextKey{}).(guard.State)
	return st, ok
}

// Guard serves requests whose path the session may enter and redirects the
// rest to the route chosen by the resolver.
func Guard(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if res == nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}

			st := res.State(r.Context())
			d := res.ResolveState(st, r.URL.Path)
			if !d.Allow {
				http.Redirect(w, r, d.Route, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), stateContextKey{}, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
