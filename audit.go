package goSession

import (
	"context"
	"errors"
	"io"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/rs/zerolog"
)

// AuditEvent is one session lifecycle record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = internalaudit.ChannelSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) AuditSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogSink returns a sink writing events to log.
func NewLogSink(log zerolog.Logger) AuditSink {
	return internalaudit.NewLogSink(log)
}

const (
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventCredentialStored    = "credential_stored"
	auditEventLogout              = "logout"
	auditEventProfileFetchFailure = "profile_fetch_failure"
	auditEventProfileDiscarded    = "profile_discarded"
)

const (
	auditErrAuthenticationFailed = "authentication_failed"
	auditErrUnauthorized         = "unauthorized"
	auditErrNotFound             = "not_found"
	auditErrTransport            = "transport"
	auditErrMalformedResponse    = "malformed_response"
	auditErrStoreUnavailable     = "store_unavailable"
	auditErrCanceled             = "canceled"
	auditErrDiscarded            = "discarded"
	auditErrInternal             = "internal"
)

func (s *Session) emitAudit(ctx context.Context, eventType, subject string, err error, metadata map[string]string) {
	if s == nil || s.audit == nil {
		return
	}
	s.audit.Emit(ctx, AuditEvent{
		Timestamp: s.now().UTC(),
		EventType: eventType,
		Subject:   subject,
		Success:   err == nil,
		Error:     auditErrorCode(err),
		Metadata:  metadata,
	})
}

func auditErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errDiscarded):
		return auditErrDiscarded
	case errors.Is(err, ErrAuthenticationFailed):
		return auditErrAuthenticationFailed
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrCredentialUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.Is(err, ErrTransport):
		return auditErrTransport
	case errors.Is(err, ErrMalformedResponse):
		return auditErrMalformedResponse
	default:
		return auditErrInternal
	}
}

// errDiscarded marks a profile that resolved after the session changed.
var errDiscarded = errors.New("session changed before the profile resolved")
