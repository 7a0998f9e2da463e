package goSession

import (
	"context"
	"errors"

	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// Login exchanges username and password for a credential. It does not store
// the credential and is not retried. A rejected login returns an error
// matching ErrAuthenticationFailed; an unreachable server returns one
// matching ErrTransport.
func (s *Session) Login(ctx context.Context, username, password string) (*Credential, error) {
	tok, err := s.api.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			s.metrics.Inc(internalmetrics.MetricLoginFailure)
		} else {
			s.metrics.Inc(internalmetrics.MetricLoginTransportFailure)
		}
		s.emitAudit(ctx, auditEventLoginFailure, "", err, map[string]string{"username": username})
		s.log.Debug().Err(err).Str("username", username).Msg("login failed")
		return nil, err
	}

	s.metrics.Inc(internalmetrics.MetricLoginSuccess)
	s.emitAudit(ctx, auditEventLoginSuccess, "", nil, map[string]string{"username": username})
	return &Credential{AccessToken: tok.AccessToken, TokenType: tok.TokenType}, nil
}

// StoreCredential makes cred the live credential. The next request sent by
// the authenticated client carries it.
func (s *Session) StoreCredential(ctx context.Context, cred *Credential) error {
	if cred == nil || cred.AccessToken == "" {
		return ErrNilCredential
	}
	if err := s.store.Set(ctx, cred.AccessToken); err != nil {
		s.emitAudit(ctx, auditEventCredentialStored, "", err, nil)
		return err
	}

	subject, _ := s.guard.Subject(ctx)
	s.metrics.Inc(internalmetrics.MetricCredentialStored)
	s.emitAudit(ctx, auditEventCredentialStored, subject, nil, nil)
	return nil
}

// SignIn runs the login form flow: Login, store the credential, then
// navigate to the home route. On failure nothing is stored and the user
// stays where they are.
func (s *Session) SignIn(ctx context.Context, username, password string) (*Credential, error) {
	cred, err := s.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.StoreCredential(ctx, cred); err != nil {
		return nil, err
	}
	s.navigator.Navigate(ctx, s.config.Routes.Home, false)
	return cred, nil
}
