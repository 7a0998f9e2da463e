package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the profile returned by the user endpoint.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Health is the body of the health endpoint.
type Health struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database"`
}

// StatusHealthy is the status value of a healthy service.
const StatusHealthy = "healthy"

// Healthy reports whether the service declared itself healthy.
func (h *Health) Healthy() bool {
	return h != nil && h.Status == StatusHealthy
}

// Timestamp decodes RFC 3339 times as well as the zone-less ISO 8601 form
// the API emits for naive datetimes, which is read as UTC.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}
