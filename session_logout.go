package goSession

import (
	"context"

	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// Logout clears the credential, drops every cached profile and navigates to
// the login route, replacing the current history entry. Store and cache are
// cleared under one lock, so no caller observes one without the other.
// Logging out while logged out only repeats the navigation.
//
// A store failure is returned after the cache has been cleared and the
// navigation has happened; the session is treated as invalid either way.
func (s *Session) Logout(ctx context.Context) error {
	subject, _ := s.guard.Subject(ctx)

	s.mu.Lock()
	err := s.store.Clear(ctx)
	s.profiles.Purge()
	s.generation++
	s.mu.Unlock()

	s.metrics.Inc(internalmetrics.MetricLogout)
	s.emitAudit(ctx, auditEventLogout, subject, err, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("logout: clear credential store")
	}

	s.navigator.Navigate(ctx, s.config.Routes.Login, true)
	return err
}
