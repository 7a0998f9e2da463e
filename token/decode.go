package token

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Payload is the self-describing part of a credential.
type Payload struct {
	Subject   string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the credential is expired at now. The boundary
// instant counts as expired.
func (p *Payload) ExpiredAt(now time.Time) bool {
	if p == nil {
		return true
	}
	return !now.Before(p.ExpiresAt)
}

type payloadClaims struct {
	Subject   string       `json:"sub"`
	ExpiresAt *json.Number `json:"exp"`
}

// maxExpSeconds bounds exp so that time arithmetic on it stays exact. A
// larger exp reads as this far-future instant.
const maxExpSeconds = 1 << 53

// expiry converts exp seconds, fractions included, to a time. Values past
// ±maxExpSeconds, infinities from overflowing literals included, are clamped.
func expiry(n json.Number) (time.Time, bool) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return time.Time{}, false
	}
	f = math.Max(-maxExpSeconds, math.Min(f, maxExpSeconds))
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// segment decoding accepts both alphabets and optional padding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

var alphabetToURL = strings.NewReplacer("+", "-", "/", "_")

// Decode returns the subject and expiry carried in the second segment of raw.
// The first and last segments are ignored. Any failure returns (nil, false).
func Decode(raw string) (*Payload, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, false
	}

	seg := alphabetToURL.Replace(parts[1])
	if seg == "" {
		return nil, false
	}
	data, err := segmentParser.DecodeSegment(seg)
	if err != nil {
		return nil, false
	}

	var claims payloadClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, false
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, false
	}

	exp, ok := expiry(*claims.ExpiresAt)
	if !ok {
		return nil, false
	}
	return &Payload{
		Subject:   claims.Subject,
		ExpiresAt: exp,
	}, true
}
