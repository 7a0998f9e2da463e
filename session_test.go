package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal/testapi"
	"github.com/MrEthical07/goSession/navigation"
)

type sessionFixture struct {
	session *Session
	api     *testapi.Server
	nav     *navigation.Recorder
	store   *credential.MemoryStore
	audit   *ChannelSink
}

func newSessionTest(t *testing.T, mutate func(*Config)) *sessionFixture {
	t.Helper()
	iss, err := testapi.NewIssuer(time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	api := testapi.New(iss, "/api")
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	cfg.Health.InitialInterval = 10 * time.Millisecond
	cfg.Health.MaxInterval = 20 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	f := &sessionFixture{
		api:   api,
		nav:   &navigation.Recorder{},
		store: credential.NewMemoryStore(),
		audit: NewChannelSink(256),
	}
	s, err := New().
		WithConfig(cfg).
		WithStore(f.store).
		WithNavigator(f.nav).
		WithAuditSink(f.audit).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(s.Close)
	f.session = s
	return f
}

func (f *sessionFixture) signIn(t *testing.T, email, password string) {
	t.Helper()
	if _, err := f.session.SignIn(context.Background(), email, password); err != nil {
		t.Fatalf("sign in %s: %v", email, err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoginResultCarriedByNextRequest(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.URL.Path == "/auth/login" {
			_ = r.ParseForm()
			if r.PostForm.Get("username") != "a@b.com" || r.PostForm.Get("password") != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok123", "token_type": "bearer"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL
	s, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx := context.Background()

	cred, err := s.Login(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if cred.AccessToken != "tok123" || cred.TokenType != "bearer" {
		t.Fatalf("unexpected credential %+v", cred)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatal("login must not store the credential")
	}

	if err := s.StoreCredential(ctx, cred); err != nil {
		t.Fatalf("store: %v", err)
	}
	resp, err := s.HTTPClient().Get(srv.URL + "/tasks")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	mu.Lock()
	defer mu.Unlock()
	if got := seen[len(seen)-1]; got != "Bearer tok123" {
		t.Fatalf("expected Bearer tok123, got %q", got)
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	ctx := context.Background()

	_, err := f.session.SignIn(ctx, "a@b.com", "wrong")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
	if f.session.IsAuthenticated(ctx) {
		t.Fatal("failed login must not store anything")
	}
	if len(f.nav.History()) != 0 {
		t.Fatalf("failed login must not navigate, got %v", f.nav.History())
	}
	if f.api.LoginCalls() != 1 {
		t.Fatalf("expected one login attempt, got %d", f.api.LoginCalls())
	}
	if f.session.MetricsSnapshot().Counters[MetricLoginFailure] != 1 {
		t.Fatal("expected login failure to be counted")
	}
}

func TestSignInStoresAndNavigatesHome(t *testing.T) {
	f := newSessionTest(t, nil)
	u := f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()

	if !f.session.IsAuthenticated(ctx) || f.session.IsExpired(ctx) {
		t.Fatal("expected valid session after sign in")
	}
	if sub, _ := f.session.Subject(ctx); sub != u.ID {
		t.Fatalf("expected subject %s, got %s", u.ID, sub)
	}
	if f.nav.Current() != navigation.RouteTasks {
		t.Fatalf("expected navigation to /tasks, got %q", f.nav.Current())
	}
}

func TestFetchCurrentUserWithoutCredentialSkipsRequest(t *testing.T) {
	f := newSessionTest(t, nil)

	p, err := f.session.FetchCurrentUser(context.Background())
	if p != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", p, err)
	}
	if f.api.UserCalls() != 0 {
		t.Fatalf("expected no request, got %d", f.api.UserCalls())
	}

	_ = f.store.Set(context.Background(), "not-a-token")
	if p, err := f.session.FetchCurrentUser(context.Background()); p != nil || err != nil {
		t.Fatalf("expected (nil, nil) for undecodable credential, got (%+v, %v)", p, err)
	}
	if f.api.UserCalls() != 0 {
		t.Fatalf("expected no request, got %d", f.api.UserCalls())
	}
}

func TestFetchCurrentUserCachesBySubject(t *testing.T) {
	f := newSessionTest(t, nil)
	u := f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := f.session.FetchCurrentUser(ctx)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if p.ID != u.ID || p.Email != "a@b.com" {
			t.Fatalf("unexpected profile %+v", p)
		}
		p.Name = "mutated"
	}
	if f.api.UserCalls() != 1 {
		t.Fatalf("expected one request, got %d", f.api.UserCalls())
	}
	if p, _ := f.session.FetchCurrentUser(ctx); p.Name != "Ann" {
		t.Fatal("callers must not be able to mutate the cached profile")
	}
	if f.session.MetricsSnapshot().Counters[MetricProfileCacheHit] < 2 {
		t.Fatal("expected cache hits to be counted")
	}
}

func TestFetchCurrentUserCacheExpires(t *testing.T) {
	f := newSessionTest(t, func(c *Config) { c.Cache.ProfileTTL = 40 * time.Millisecond })
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()

	if _, err := f.session.FetchCurrentUser(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := f.session.FetchCurrentUser(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if f.api.UserCalls() != 2 {
		t.Fatalf("expected refetch after TTL, got %d requests", f.api.UserCalls())
	}
}

func TestFetchCurrentUserFailuresAreNotCached(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()

	// A token for a subject the API does not know.
	iss, _ := testapi.NewIssuer(time.Hour)
	ghost, _ := iss.Issue("ghost")
	_ = f.store.Set(ctx, ghost)

	for i := 0; i < 2; i++ {
		if _, err := f.session.FetchCurrentUser(ctx); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized for a token the API did not sign, got %v", err)
		}
	}
	if f.api.UserCalls() != 2 {
		t.Fatalf("expected failures to be refetched, got %d requests", f.api.UserCalls())
	}
	if !f.session.IsAuthenticated(ctx) {
		t.Fatal("an authorization failure must not clear the store")
	}
}

func TestFetchCurrentUserSharesConcurrentRequests(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	release := f.api.HoldUsers()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := f.session.FetchCurrentUser(context.Background())
			if err == nil && p == nil {
				err = errors.New("nil profile")
			}
			errs <- err
		}()
	}
	waitFor(t, func() bool { return f.api.UserCalls() == 1 })
	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if f.api.UserCalls() != 1 {
		t.Fatalf("expected one shared request, got %d", f.api.UserCalls())
	}
}

func TestFetchCurrentUserCallerCancelDoesNotFailOthers(t *testing.T) {
	f := newSessionTest(t, nil)
	u := f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	release := f.api.HoldUsers()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.session.FetchCurrentUser(ctx)
		first <- err
	}()
	waitFor(t, func() bool { return f.api.UserCalls() == 1 })

	type result struct {
		p   *Profile
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := f.session.FetchCurrentUser(context.Background())
		second <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the canceled caller to get context.Canceled, got %v", err)
	}
	select {
	case r := <-second:
		t.Fatalf("caller with a live context returned early: (%+v, %v)", r.p, r.err)
	case <-time.After(20 * time.Millisecond):
	}

	release()
	r := <-second
	if r.err != nil || r.p == nil || r.p.ID != u.ID {
		t.Fatalf("expected profile for the live caller, got (%+v, %v)", r.p, r.err)
	}
	if _, err := f.session.FetchCurrentUser(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if f.api.UserCalls() != 1 {
		t.Fatalf("expected one shared request and a cached result, got %d requests", f.api.UserCalls())
	}
}

func TestFetchDiscardDoesNotHoldSessionLockWhileAuditing(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	cfg := f.session.Config()
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = false
	store := credential.NewMemoryStore()
	sink := &gateSink{gate: make(chan struct{})}
	s, err := New().WithConfig(cfg).WithStore(store).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer func() {
		close(sink.gate)
		s.Close()
	}()
	ctx := context.Background()

	// login_success parks in the sink and credential_stored fills the buffer.
	if _, err := s.SignIn(ctx, "a@b.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	release := f.api.HoldUsers()
	go func() { _, _ = s.FetchCurrentUser(ctx) }()
	waitFor(t, func() bool { return f.api.UserCalls() == 1 })

	iss, _ := testapi.NewIssuer(time.Hour)
	other, _ := iss.Issue("someone-else")
	_ = store.Set(ctx, other)
	release()
	waitFor(t, func() bool { return s.MetricsSnapshot().Counters[MetricProfileDiscarded] == 1 })

	done := make(chan struct{})
	go func() {
		s.InvalidateProfile("someone-else")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session lock held while the discard audit event waits for buffer room")
	}
}

func TestLogoutClearsStoreAndCache(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	bob := f.api.AddUser("Bob", "bob@b.com", "hunter22", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()

	if _, err := f.session.FetchCurrentUser(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if err := f.session.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.session.IsAuthenticated(ctx) {
		t.Fatal("expected logged out")
	}
	h := f.nav.History()
	if last := h[len(h)-1]; last.Route != navigation.RouteLogin || !last.Replace {
		t.Fatalf("expected replace navigation to /login, got %+v", last)
	}
	if p, err := f.session.FetchCurrentUser(ctx); p != nil || err != nil {
		t.Fatalf("expected no profile after logout, got (%+v, %v)", p, err)
	}

	f.signIn(t, "bob@b.com", "hunter22")
	p, err := f.session.FetchCurrentUser(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.ID != bob.ID {
		t.Fatalf("expected profile of the new subject, got %+v", p)
	}
	if f.api.UserCalls() != 2 {
		t.Fatalf("expected a fresh request for the new subject, got %d", f.api.UserCalls())
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newSessionTest(t, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := f.session.Logout(ctx); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if f.nav.Current() != navigation.RouteLogin {
		t.Fatalf("expected /login, got %q", f.nav.Current())
	}
	if f.session.IsAuthenticated(ctx) {
		t.Fatal("expected logged out")
	}
}

func TestFetchResolvingAfterLogoutIsDiscarded(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()
	release := f.api.HoldUsers()

	type result struct {
		p   *Profile
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := f.session.FetchCurrentUser(ctx)
		done <- result{p, err}
	}()
	waitFor(t, func() bool { return f.api.UserCalls() == 1 })

	if err := f.session.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	release()

	r := <-done
	if r.p != nil || r.err != nil {
		t.Fatalf("expected in-flight result to be discarded, got (%+v, %v)", r.p, r.err)
	}
	if f.session.profiles.Len() != 0 {
		t.Fatal("discarded profile must not be cached")
	}
	if f.session.MetricsSnapshot().Counters[MetricProfileDiscarded] != 1 {
		t.Fatal("expected discard to be counted")
	}
}

func TestFetchResolvingAfterSubjectChangeIsDiscarded(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	bob := f.api.AddUser("Bob", "bob@b.com", "hunter22", "")
	f.signIn(t, "a@b.com", "secret1")
	ctx := context.Background()
	release := f.api.HoldUsers()

	done := make(chan *Profile, 1)
	go func() {
		p, _ := f.session.FetchCurrentUser(ctx)
		done <- p
	}()
	waitFor(t, func() bool { return f.api.UserCalls() == 1 })

	cred, err := f.session.Login(ctx, "bob@b.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.session.StoreCredential(ctx, cred); err != nil {
		t.Fatalf("store: %v", err)
	}
	release()

	if p := <-done; p != nil {
		t.Fatalf("expected stale profile to be discarded, got %+v", p)
	}
	p, err := f.session.FetchCurrentUser(ctx)
	if err != nil || p.ID != bob.ID {
		t.Fatalf("expected profile of the new subject, got (%+v, %v)", p, err)
	}
}

type unreadableStore struct{}

func (unreadableStore) Get(context.Context) (string, bool, error) {
	return "", false, errors.New("dial tcp: connection refused")
}
func (unreadableStore) Set(context.Context, string) error { return nil }
func (unreadableStore) Clear(context.Context) error       { return nil }

func TestLoginAndHealthWorkWithUnreadableStore(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	s, err := New().WithConfig(f.session.Config()).WithStore(unreadableStore{}).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	cred, err := s.Login(ctx, "a@b.com", "secret1")
	if err != nil || cred.AccessToken == "" {
		t.Fatalf("expected login without a readable store, got (%+v, %v)", cred, err)
	}
	if _, err := s.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
	if _, err := s.API().GetUser(ctx, "u1"); !errors.Is(err, ErrCredentialUnavailable) {
		t.Fatalf("expected authenticated calls to fail closed, got %v", err)
	}
	if s.IsAuthenticated(ctx) {
		t.Fatal("an unreadable store must not count as authenticated")
	}
}

func TestExpiredCredentialRoutesToLogin(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := newSessionTest(t, nil)
	ctx := context.Background()

	iss, _ := testapi.NewIssuer(time.Hour)
	tok, _ := iss.IssueWithExpiry("u1", now.Add(-time.Second))
	_ = f.store.Set(ctx, tok)

	if !f.session.IsAuthenticated(ctx) || !f.session.IsExpired(ctx) {
		t.Fatal("expected authenticated but expired")
	}
	d := f.session.Open(ctx, "/tasks")
	if d.Route != navigation.RouteLogin || d.Reason != navigation.ReasonExpired {
		t.Fatalf("unexpected decision %+v", d)
	}
	if last := f.nav.History()[len(f.nav.History())-1]; !last.Replace || last.Route != navigation.RouteLogin {
		t.Fatalf("expected redirect to replace history, got %+v", last)
	}
}

func TestValidSessionLeavesLogin(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	ctx := context.Background()

	if d := f.session.Resolve(ctx, "/login"); !d.Allow {
		t.Fatalf("expected anonymous user on login, got %+v", d)
	}
	f.signIn(t, "a@b.com", "secret1")
	if d := f.session.Resolve(ctx, "/login"); d.Route != navigation.RouteTasks {
		t.Fatalf("expected redirect to /tasks, got %+v", d)
	}
	if d := f.session.Resolve(ctx, "/"); d.Route != navigation.RouteTasks {
		t.Fatalf("expected / to land on /tasks, got %+v", d)
	}
}

func TestHealthAndWaitHealthy(t *testing.T) {
	f := newSessionTest(t, nil)
	ctx := context.Background()

	h, err := f.session.Health(ctx)
	if err != nil || !h.Healthy() || h.Service != testapi.ServiceName {
		t.Fatalf("unexpected health (%+v, %v)", h, err)
	}

	f.api.SetDatabase(false)
	h, err = f.session.WaitHealthy(ctx, 100*time.Millisecond)
	if !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}
	if h == nil || h.Healthy() {
		t.Fatalf("expected last unhealthy report, got %+v", h)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		f.api.SetDatabase(true)
	}()
	h, err = f.session.WaitHealthy(ctx, 2*time.Second)
	if err != nil || !h.Healthy() {
		t.Fatalf("expected service to become healthy, got (%+v, %v)", h, err)
	}
	if f.session.IsAuthenticated(ctx) {
		t.Fatal("health checks must not touch the session")
	}
}

func TestAuditEventsForSessionLifecycle(t *testing.T) {
	f := newSessionTest(t, nil)
	u := f.api.AddUser("Ann", "a@b.com", "secret1", "")
	ctx := context.Background()

	_, _ = f.session.Login(ctx, "a@b.com", "bad")
	f.signIn(t, "a@b.com", "secret1")
	_ = f.session.Logout(ctx)
	f.session.Close()

	want := []struct {
		typ     string
		success bool
		subject string
	}{
		{auditEventLoginFailure, false, ""},
		{auditEventLoginSuccess, true, ""},
		{auditEventCredentialStored, true, u.ID},
		{auditEventLogout, true, u.ID},
	}
	for _, w := range want {
		select {
		case e := <-f.audit.Events():
			if e.EventType != w.typ || e.Success != w.success || e.Subject != w.subject {
				t.Fatalf("expected %+v, got %+v", w, e)
			}
			if e.EventType == auditEventLoginFailure && e.Error != auditErrAuthenticationFailed {
				t.Fatalf("unexpected error code %q", e.Error)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %s", w.typ)
		}
	}
}

func TestAPIRequestMetrics(t *testing.T) {
	f := newSessionTest(t, nil)
	f.api.AddUser("Ann", "a@b.com", "secret1", "")
	f.signIn(t, "a@b.com", "secret1")
	_, _ = f.session.FetchCurrentUser(context.Background())

	snap := f.session.MetricsSnapshot()
	if snap.Counters[MetricAPIRequest] != 2 {
		t.Fatalf("expected 2 API requests, got %d", snap.Counters[MetricAPIRequest])
	}
	var total uint64
	for _, v := range snap.Histograms[MetricAPILatency] {
		total += v
	}
	if total != 2 {
		t.Fatalf("expected 2 latency samples, got %d", total)
	}
}
