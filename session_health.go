package goSession

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Health fetches the service health report. It is informational and never
// affects session state.
func (s *Session) Health(ctx context.Context) (*Health, error) {
	return s.api.Health(ctx)
}

// WaitHealthy polls Health with exponential backoff until the service
// reports healthy, ctx is done or maxWait elapses. A maxWait of zero polls
// until ctx is done. The last report is returned alongside any error.
func (s *Session) WaitHealthy(ctx context.Context, maxWait time.Duration) (*Health, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.Health.InitialInterval
	b.MaxInterval = s.config.Health.MaxInterval
	b.MaxElapsedTime = maxWait

	var last *Health
	err := backoff.RetryNotify(
		func() error {
			h, err := s.api.Health(ctx)
			if err != nil {
				return err
			}
			last = h
			if !h.Healthy() {
				return fmt.Errorf("%w: %s (database %s)", ErrUnhealthy, h.Status, h.Database)
			}
			return nil
		},
		backoff.WithContext(b, ctx),
		func(err error, next time.Duration) {
			s.log.Debug().Err(err).Dur("next", next).Msg("waiting for api health")
		},
	)
	return last, err
}
