package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	formTokenInfo   = "marketplace/form-token"
	minSecretLength = 32
)

var (
	ErrInvalidToken = errors.New("invalid form token")
	ErrTokenExpired = errors.New("form token expired")
	ErrWeakSecret   = fmt.Errorf("secret must be at least %d bytes", minSecretLength)
)

// FormClaims is what a verified form token carries back to the submission handler.
type FormClaims struct {
	MarketplaceID string
	Nonce         string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

type formClaims struct {
	jwt.RegisteredClaims
	MarketplaceID string `json:"mid"`
}

// FormTokens issues and verifies the signed token embedded in the message form.
// The token pins the marketplace identifier observed when the page was rendered.
type FormTokens struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewFormTokens derives the signing key from secret.
func NewFormTokens(secret string, ttl time.Duration) (*FormTokens, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("form token ttl must be positive, got %s", ttl)
	}

	key, err := deriveKey(secret, formTokenInfo)
	if err != nil {
		return nil, err
	}

	return &FormTokens{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns how long an issued token stays valid.
func (f *FormTokens) TTL() time.Duration {
	return f.ttl
}

// Issue signs a new token for marketplaceID with a fresh nonce.
func (f *FormTokens) Issue(marketplaceID string) (string, *FormClaims, error) {
	if marketplaceID == "" {
		return "", nil, errors.New("marketplace id is required")
	}

	now := f.now()
	claims := formClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.ttl)),
		},
		MarketplaceID: marketplaceID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign form token: %w", err)
	}

	return token, toFormClaims(claims), nil
}

// Verify checks signature and expiry and returns the embedded claims.
func (f *FormTokens) Verify(token string) (*FormClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var parsed formClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return f.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(f.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if parsed.MarketplaceID == "" || parsed.ID == "" {
		return nil, ErrInvalidToken
	}

	return toFormClaims(parsed), nil
}

func toFormClaims(c formClaims) *FormClaims {
	out := &FormClaims{
		MarketplaceID: c.MarketplaceID,
		Nonce:         c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

// deriveKey expands secret into a 32 byte key bound to info.
func deriveKey(secret, info string) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
