// Package auth resolves caller identity tokens presented by clients.
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/pitchside/internal/platform/config"
	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvIdentityIssuer    = config.EnvPrefix + "LEDGER_IDENTITY_ISSUER"
	EnvIdentityAudience  = config.EnvPrefix + "LEDGER_IDENTITY_AUDIENCE"
	EnvIdentityPublicKey = config.EnvPrefix + "LEDGER_IDENTITY_PUBLIC_KEY"
)

// identityEnv holds raw env values before post-parse validation.
type identityEnv struct {
	Issuer    string `env:"LEDGER_IDENTITY_ISSUER"`
	Audience  string `env:"LEDGER_IDENTITY_AUDIENCE" envDefault:"pitchside-ledger"`
	PublicKey string `env:"LEDGER_IDENTITY_PUBLIC_KEY"`
}

// Config defines how identity tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Identity is a verified caller.
type Identity struct {
	UserID    string
	Issuer    string
	ExpiresAt time.Time
	TokenID   string
}

// identityClaims is the JWT body issued by the account service.
type identityClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// LoadConfigFromEnv reads verification settings from the environment.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw identityEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse identity env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("%s is required", EnvIdentityIssuer)
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("%s is required", EnvIdentityPublicKey)
	}
	key, err := DecodePublicKey(publicKey)
	if err != nil {
		return Config{}, err
	}
	if now == nil {
		now = time.Now
	}
	return Config{Issuer: issuer, Audience: audience, Key: key, Now: now}, nil
}

// DecodePublicKey parses a base64 Ed25519 public key, padded or not.
func DecodePublicKey(value string) (ed25519.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty identity public key")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("decode identity public key: %w", err)
		}
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("identity public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(decoded), nil
}

// Verifier checks identity tokens. Every rejection carries the
// Unauthenticated code.
type Verifier struct {
	cfg Config
}

// NewVerifier validates cfg and builds a verifier.
func NewVerifier(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("identity issuer and audience are required")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		return nil, errors.New("identity verifier key is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify parses token and returns the caller it identifies.
func (v *Verifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, unauthenticated("identity token is required")
	}

	var parsed identityClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Identity{}, mapJWTError(err)
	}

	if parsed.Issuer != v.cfg.Issuer {
		return Identity{}, unauthenticated("identity token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return Identity{}, unauthenticated("identity token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return Identity{}, unauthenticated("identity token exp is required")
	}
	now := v.cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Identity{}, unauthenticated("identity token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Identity{}, unauthenticated("identity token not active yet")
	}

	userID := strings.TrimSpace(parsed.UserID)
	if userID == "" {
		userID = strings.TrimSpace(parsed.Subject)
	}
	if userID == "" {
		return Identity{}, unauthenticated("identity token has no user")
	}
	return Identity{UserID: userID, Issuer: parsed.Issuer, ExpiresAt: exp, TokenID: parsed.ID}, nil
}

func unauthenticated(message string) error {
	return apperrors.New(apperrors.CodeUnauthenticated, message)
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return unauthenticated("identity token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return unauthenticated("identity token alg is invalid")
	}
	return unauthenticated("identity token is invalid")
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

// Signer issues identity tokens. The ledger only verifies; Signer backs
// local tooling and tests.
type Signer struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Sign issues a token for userID.
func (s Signer) Sign(userID, tokenID string) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	issued := now().UTC()
	claims := identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.Audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
			ID:        tokenID,
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.Key)
}
