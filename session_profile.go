package goSession

import (
	"context"
	"strconv"

	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// FetchCurrentUser returns the profile of the credential's subject.
//
// Without a decodable credential it returns (nil, nil) and sends nothing.
// Profiles are cached by subject for Config.Cache.ProfileTTL. Concurrent
// calls for the same subject share one request. Failures are neither cached
// nor retried.
//
// The shared request is not tied to any one caller: a caller whose ctx ends
// returns ctx.Err() while the others keep waiting. The request itself is
// bounded by Config.API.Timeout.
//
// A result that resolves after a logout, or after the credential's subject
// changed, is dropped and (nil, nil) is returned: the store at resolution
// time decides.
func (s *Session) FetchCurrentUser(ctx context.Context) (*Profile, error) {
	subject, ok := s.guard.Subject(ctx)
	if !ok {
		s.metrics.Inc(internalmetrics.MetricProfileSkipped)
		return nil, nil
	}

	s.mu.RLock()
	gen := s.generation
	cached, hit := s.profiles.Get(subject)
	s.mu.RUnlock()
	if hit {
		s.metrics.Inc(internalmetrics.MetricProfileCacheHit)
		return copyProfile(cached), nil
	}
	s.metrics.Inc(internalmetrics.MetricProfileCacheMiss)

	key := strconv.FormatUint(gen, 10) + "/" + subject
	shared := context.WithoutCancel(ctx)
	ch := s.fetches.DoChan(key, func() (any, error) {
		return s.fetchProfile(shared, gen, subject)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		profile, _ := res.Val.(*Profile)
		return copyProfile(profile), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchProfile runs once per shared request. It commits the profile to the
// cache unless the session moved on while the request was in flight, in
// which case it returns a nil profile.
func (s *Session) fetchProfile(ctx context.Context, gen uint64, subject string) (*Profile, error) {
	profile, err := s.api.GetUser(ctx, subject)
	if err != nil {
		s.metrics.Inc(internalmetrics.MetricProfileFetchFailure)
		s.emitAudit(ctx, auditEventProfileFetchFailure, subject, err, nil)
		return nil, err
	}

	s.mu.Lock()
	current, ok := s.guard.Subject(ctx)
	stale := s.generation != gen || !ok || current != subject
	if !stale {
		s.profiles.Add(subject, profile)
	}
	s.mu.Unlock()

	if stale {
		s.metrics.Inc(internalmetrics.MetricProfileDiscarded)
		s.emitAudit(ctx, auditEventProfileDiscarded, subject, errDiscarded, nil)
		return nil, nil
	}
	return profile, nil
}

// InvalidateProfile drops the cached profile of subject.
func (s *Session) InvalidateProfile(subject string) {
	s.mu.Lock()
	s.profiles.Remove(subject)
	s.mu.Unlock()
}

func copyProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
