package goSession

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/guard"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Session is the client's session layer. Build one with [New].
type Session struct {
	config Config

	store      credential.Store
	guard      *guard.Guard
	httpClient *http.Client
	api        *api.Client
	navigator  navigation.Navigator

	// mu orders profile cache commits against logout. generation counts
	// logouts; a fetch started in an older generation is never cached.
	mu         sync.RWMutex
	generation uint64
	profiles   *expirable.LRU[string, *Profile]
	fetches    singleflight.Group

	audit   *internalaudit.Dispatcher
	metrics *internalmetrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// Store returns the credential store.
func (s *Session) Store() credential.Store {
	return s.store
}

// Guard returns the session guard.
func (s *Session) Guard() *guard.Guard {
	return s.guard
}

// HTTPClient returns the authenticated client. Every request it sends carries
// the credential held at send time.
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}

// API returns the wire client, which sends through HTTPClient.
func (s *Session) API() *api.Client {
	return s.api
}

// Config returns a copy of the configuration.
func (s *Session) Config() Config {
	return cloneConfig(s.config)
}

// IsAuthenticated reports whether a decodable credential is held. An expired
// credential still counts.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.guard.IsAuthenticated(ctx)
}

// IsExpired reports whether the held credential is past its expiry. It is
// true when no credential is held.
func (s *Session) IsExpired(ctx context.Context) bool {
	return s.guard.IsExpired(ctx)
}

// Subject returns the credential's subject.
func (s *Session) Subject(ctx context.Context) (string, bool) {
	return s.guard.Subject(ctx)
}

// State reads the store once and returns every session fact together.
func (s *Session) State(ctx context.Context) State {
	return s.guard.State(ctx)
}

// Resolve decides where a request for path ends up in the current state.
func (s *Session) Resolve(ctx context.Context, path string) navigation.Decision {
	return s.ResolveState(s.guard.State(ctx), path)
}

// ResolveState decides where a request for path ends up in st, without
// reading the store.
func (s *Session) ResolveState(st State, path string) navigation.Decision {
	return navigation.Resolve(navigation.Session{
		Authenticated: st.Authenticated,
		Expired:       st.Expired,
	}, s.config.Routes.navigation(), path)
}

// Open resolves path and navigates to the outcome. Redirects replace the
// current history entry.
func (s *Session) Open(ctx context.Context, path string) navigation.Decision {
	d := s.Resolve(ctx, path)
	s.navigator.Navigate(ctx, d.Route, d.Redirect())
	return d
}

// MetricsSnapshot returns the current metric values.
func (s *Session) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (s *Session) AuditDropped() uint64 {
	return s.audit.Dropped()
}

// AuditDroppedByType splits AuditDropped by event type.
func (s *Session) AuditDroppedByType() map[string]uint64 {
	return s.audit.DroppedByType()
}

// Flush waits until every audit event emitted so far has reached the sink,
// or ctx is done.
func (s *Session) Flush(ctx context.Context) error {
	return s.audit.Flush(ctx)
}

// Close delivers pending audit events and stops the dispatcher.
func (s *Session) Close() {
	s.audit.Close()
}

func (s *Session) observeRequest(_ *http.Request, status int, d time.Duration, err error) {
	s.metrics.Inc(internalmetrics.MetricAPIRequest)
	if err != nil || status >= 500 {
		s.metrics.Inc(internalmetrics.MetricAPIRequestFailure)
	}
	s.metrics.Observe(internalmetrics.MetricAPILatency, d)
}
