package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"algotracker/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTTL matches the session cookie lifetime.
const DefaultAccessTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for any token that fails to verify.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims identify the authenticated account.
type AccessClaims struct {
	jwt.RegisteredClaims
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type roleClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issuer signs and checks access and role tokens.
type Issuer struct {
	accessSecret []byte
	accessTTL    time.Duration
	roleSecret   []byte
	roleTTL      time.Duration
	now          func() time.Time
}

// NewIssuer creates an Issuer. Each token kind uses its own secret.
func NewIssuer(accessSecret string, accessTTL time.Duration, roleSecret string, roleTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if roleTTL <= 0 {
		roleTTL = 24 * time.Hour
	}
	return &Issuer{
		accessSecret: []byte(accessSecret),
		accessTTL:    accessTTL,
		roleSecret:   []byte(roleSecret),
		roleTTL:      roleTTL,
		now:          time.Now,
	}
}

// WithClock overrides the time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// IssueAccess signs an access token for acc.
func (i *Issuer) IssueAccess(acc *model.Account) (string, error) {
	now := i.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
		ID:    acc.ID,
		Email: acc.Email,
		Name:  acc.Name,
		Role:  acc.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies an access token and returns its claims.
func (i *Issuer) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(tokenStr, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueRole signs a role token and appends "-<suffix>".
func (i *Issuer) IssueRole(role, suffix string) (string, error) {
	now := i.now()
	claims := roleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.roleTTL)),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.roleSecret)
	if err != nil {
		return "", fmt.Errorf("sign role token: %w", err)
	}
	return signed + "-" + suffix, nil
}

// DecodeRole strips the expected "-<suffix>" from value and verifies the
// remaining token. It returns ErrInvalidToken when the suffix is absent or
// the token does not verify.
func (i *Issuer) DecodeRole(value, expectedSuffix string) (string, error) {
	tail := "-" + expectedSuffix
	if expectedSuffix == "" || !strings.HasSuffix(value, tail) {
		return "", ErrInvalidToken
	}
	raw := strings.TrimSuffix(value, tail)
	claims := &roleClaims{}
	if err := i.parse(raw, claims, i.roleSecret); err != nil {
		return "", err
	}
	if claims.Role == "" {
		return "", ErrInvalidToken
	}
	return claims.Role, nil
}

func (i *Issuer) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	if tokenStr == "" {
		return ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// CookieKey returns prefix followed by the hex of two random bytes.
func CookieKey(prefix string) (string, error) {
	buf := make([]byte, 2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cookie key: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}
