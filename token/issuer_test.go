package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestIssuedTokenDecodesWithoutVerification(t *testing.T) {
	pub, priv := newEdKeys(t)
	iss, err := NewIssuer(IssuerConfig{TTL: time.Hour, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	iss = iss.WithClock(func() time.Time { return now })

	raw, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	p, ok := Decode(raw)
	if !ok {
		t.Fatal("expected issued token to decode")
	}
	if p.Subject != "user-1" || !p.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected payload %+v", p)
	}

	claims, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	iss, err := NewIssuer(IssuerConfig{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("secret-secret-secret-secret")})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	expired, err := iss.IssueWithExpiry("u1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := iss.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	foreign, err := other.SignedString([]byte("another-secret-another-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := iss.Verify(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	if _, err := iss.Verify("header.eyJzdWIiOiJ1MSIsImV4cCI6OTk5OTk5OTk5OX0.sig"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for unsigned token, got %v", err)
	}
}

func TestNewIssuerValidatesConfig(t *testing.T) {
	pub, _ := newEdKeys(t)
	cases := []IssuerConfig{
		{TTL: 0, SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		{TTL: time.Minute, SigningMethod: MethodHS256},
		{TTL: time.Minute, SigningMethod: MethodEd25519},
		{TTL: time.Minute, SigningMethod: "rs256", PublicKey: pub},
		{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: time.Hour},
	}
	for i, cfg := range cases {
		if _, err := NewIssuer(cfg); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	iss, err := NewIssuer(IssuerConfig{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k")})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	if _, err := iss.Issue(""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
}
