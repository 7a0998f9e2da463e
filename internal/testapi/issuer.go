package testapi

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/token"
)

// NewIssuer returns an Ed25519 issuer with a fresh key pair.
func NewIssuer(ttl time.Duration) (*token.Issuer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return token.NewIssuer(token.IssuerConfig{
		TTL:           ttl,
		SigningMethod: token.MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "taskflow-testapi",
	})
}
