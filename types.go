package goSession

import (
	"github.com/MrEthical07/goSession/api"
	"github.com/MrEthical07/goSession/guard"
)

// Credential is the result of a successful login.
type Credential struct {
	AccessToken string
	TokenType   string
}

// Profile is the current user's profile.
type Profile = api.User

// Health is the remote service health report.
type Health = api.Health

// State is a point-in-time view of the session.
type State = guard.State
