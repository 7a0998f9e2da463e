package middleware

import (
	"context"
	"net/http"
)

// RequireSession answers 401 unless the session is authenticated and
// unexpired.
func RequireSession(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if res == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			st := res.State(r.Context())
			if !st.Valid() {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), stateContextKey{}, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
