// Package auth issues and verifies the signed access/refresh tokens and checks
// passwords against stored bcrypt hashes.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the claim set shared by both token kinds.
type Identity struct {
	Subject  string
	Username string
	Role     string
}

// Claims is the JWT payload: registered claims (sub, iat, exp, jti) plus the
// username and role of the user.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Identity returns the claim set carried by the token.
func (c *Claims) Identity() Identity {
	return Identity{Subject: c.Subject, Username: c.Username, Role: c.Role}
}

// GenerateToken signs id with secret (HS256). The token expires ttl after
// issuedAt; both are stored with second precision.
func GenerateToken(id Identity, secret []byte, issuedAt time.Time, ttl time.Duration, tokenID string) (string, error) {
	iat := issuedAt.Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
			ID:        tokenID,
		},
		Username: id.Username,
		Role:     id.Role,
	})

	return token.SignedString(secret)
}

// ParseToken verifies tokenString with secret and returns its claims. The
// error is one of common.ErrMalformedToken, common.ErrBadSignature or
// common.ErrTokenExpired.
func ParseToken(tokenString string, secret []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, common.ErrMalformedToken
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrBadSignature
	default:
		return common.ErrMalformedToken
	}
}

// TokenConfig carries the two signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is the result of one issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer mints and verifies token pairs with an injected TokenConfig.
type Issuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewIssuer(cfg TokenConfig) *Issuer {
	return &Issuer{cfg: cfg, now: time.Now}
}

// IssuePair signs one access and one refresh token for id. Both share the
// same iat and jti; only the secret and expiry differ.
func (i *Issuer) IssuePair(id Identity) (*TokenPair, error) {
	iat := i.now().Truncate(time.Second)
	jti := uuid.NewString()

	access, err := GenerateToken(id, i.cfg.AccessSecret, iat, i.cfg.AccessTTL, jti)
	if err != nil {
		return nil, err
	}
	refresh, err := GenerateToken(id, i.cfg.RefreshSecret, iat, i.cfg.RefreshTTL, jti)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  iat.Add(i.cfg.AccessTTL),
		RefreshExpiresAt: iat.Add(i.cfg.RefreshTTL),
	}, nil
}

func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return ParseToken(token, i.cfg.AccessSecret, i.now)
}

func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return ParseToken(token, i.cfg.RefreshSecret, i.now)
}

// RefreshTTL is how long a freshly issued refresh token stays valid.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.cfg.RefreshTTL
}
