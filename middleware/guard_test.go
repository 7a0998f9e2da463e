package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/internal/testapi"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsole(t *testing.T) (http.Handler, *credential.MemoryStore) {
	t.Helper()
	store := credential.NewMemoryStore()
	s, err := goSession.New().WithStore(store).Build()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Guard(s))
		r.Get("/login", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("login")) })
		r.Get("/tasks", func(w http.ResponseWriter, r *http.Request) {
			st, ok := StateFromContext(r.Context())
			if !ok {
				http.Error(w, "no state", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte("tasks:" + st.Subject))
		})
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("status")) })
		r.Get("/*", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	})
	r.With(RequireSession(s)).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		st, _ := StateFromContext(r.Context())
		_, _ = w.Write([]byte(st.Subject))
	})
	return r, store
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func issue(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	iss, err := testapi.NewIssuer(time.Hour)
	require.NoError(t, err)
	tok, err := iss.IssueWithExpiry(subject, exp)
	require.NoError(t, err)
	return tok
}

func TestGuardAnonymous(t *testing.T) {
	h, _ := newConsole(t)

	rec := get(h, "/tasks")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = get(h, "/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	assert.Equal(t, "login", get(h, "/login").Body.String())
	assert.Equal(t, "status", get(h, "/status").Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(h, "/me").Code)
}

func TestGuardSignedIn(t *testing.T) {
	h, store := newConsole(t)
	require.NoError(t, store.Set(context.Background(), issue(t, "u-1", time.Now().Add(time.Hour))))

	rec := get(h, "/tasks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tasks:u-1", rec.Body.String())

	rec = get(h, "/login")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks", rec.Header().Get("Location"))

	rec = get(h, "/unknown")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks", rec.Header().Get("Location"))

	assert.Equal(t, "u-1", get(h, "/me").Body.String())
}

func TestGuardExpired(t *testing.T) {
	h, store := newConsole(t)
	require.NoError(t, store.Set(context.Background(), issue(t, "u-1", time.Now().Add(-time.Minute))))

	rec := get(h, "/tasks")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, "login", get(h, "/login").Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(h, "/me").Code)
}

func TestGuardNilResolver(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { t.Fatal("next must not run") })
	assert.Equal(t, http.StatusServiceUnavailable, get(Guard(nil)(next), "/tasks").Code)
	assert.Equal(t, http.StatusUnauthorized, get(RequireSession(nil)(next), "/me").Code)
}

// flakyResolver reports a valid session on the first State call and an
// anonymous one afterwards, like a credential cleared mid-request.
type flakyResolver struct {
	calls atomic.Int32
}

func (r *flakyResolver) State(context.Context) guard.State {
	if r.calls.Add(1) == 1 {
		return guard.State{Authenticated: true, Subject: "u-1", ExpiresAt: time.Now().Add(time.Hour)}
	}
	return guard.State{}
}

func (r *flakyResolver) ResolveState(st guard.State, path string) navigation.Decision {
	return navigation.Resolve(navigation.Session{
		Authenticated: st.Authenticated,
		Expired:       st.Expired,
	}, navigation.DefaultRoutes(), path)
}

func TestGuardDecidesAndServesOneSnapshot(t *testing.T) {
	res := &flakyResolver{}
	h := Guard(res)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := StateFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte("tasks:" + st.Subject))
	}))

	rec := get(h, "/tasks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tasks:u-1", rec.Body.String())
	assert.Equal(t, int32(1), res.calls.Load())
}
