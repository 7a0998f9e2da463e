package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the algorithm used by an [Issuer].
type SigningMethod string

const (
	// MethodEd25519 signs with EdDSA over Ed25519 keys.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 signs with HMAC-SHA256 over a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrInvalidToken is returned by Verify for any token that does not pass verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySubject is returned by Issue when no subject is supplied.
	ErrEmptySubject = errors.New("empty subject")
)

// IssuerConfig configures an [Issuer].
type IssuerConfig struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	KeyID         string
}

// Issuer mints and verifies signed access tokens carrying sub and exp.
type Issuer struct {
	config IssuerConfig
	now    func() time.Time
}

// Claims are the claims written by [Issuer.Issue].
type Claims struct {
	jwt.RegisteredClaims
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("ed25519 requires public key")
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Issuer{config: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	out := *i
	out.now = now
	return &out
}

// Issue signs a token for subject that expires after the configured TTL.
func (i *Issuer) Issue(subject string) (string, error) {
	return i.IssueWithExpiry(subject, i.now().Add(i.config.TTL))
}

// IssueWithExpiry signs a token for subject with an explicit expiry.
func (i *Issuer) IssueWithExpiry(subject string, expiresAt time.Time) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(i.now()),
			Issuer:    i.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(i.method(), claims)
	if i.config.KeyID != "" {
		tok.Header["kid"] = i.config.KeyID
	}

	key, err := i.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

// Verify checks the signature, algorithm and time claims of raw and returns
// its claims. Every failure wraps [ErrInvalidToken].
func (i *Issuer) Verify(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if i.config.KeyID != "" {
			kid, _ := t.Header["kid"].(string)
			if kid != i.config.KeyID {
				return nil, errors.New("unknown kid")
			}
		}
		return i.verifyKey()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) method() jwt.SigningMethod {
	if i.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (i *Issuer) signKey() (interface{}, error) {
	if i.config.SigningMethod == MethodHS256 {
		return i.config.PrivateKey, nil
	}
	return parseEdPrivateKey(i.config.PrivateKey)
}

func (i *Issuer) verifyKey() (interface{}, error) {
	if i.config.SigningMethod == MethodHS256 {
		return i.config.PrivateKey, nil
	}
	return parseEdPublicKey(i.config.PublicKey)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
