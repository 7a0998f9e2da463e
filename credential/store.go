package credential

import (
	"context"
	"errors"
)

// DefaultKey is the storage key the credential is kept under.
const DefaultKey = "Authorization"

// ErrStoreUnavailable wraps backend failures of a Store.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Store persists at most one credential.
//
// Get reports ok=false when no credential is held. Set overwrites
// unconditionally. Clear on an empty store is a no-op.
type Store interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
