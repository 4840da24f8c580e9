// Package jwt issues and verifies HS256 access tokens.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "multilingual-news"
	// DefaultExpire is the lifetime of a token when none is configured.
	DefaultExpire = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Signer signs and parses user tokens.
type Signer struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

// New creates a signer, expire <= 0 means DefaultExpire.
func New(secret []byte, expire time.Duration) (*Signer, error) {
	if len(secret) < 8 {
		return nil, errors.New("jwt secret should be at least 8 bytes")
	}
	if expire <= 0 {
		expire = DefaultExpire
	}

	return &Signer{
		secret: secret,
		expire: expire,
		now:    gutils.Clock.GetUTCNow,
	}, nil
}

// Expire returns the token lifetime.
func (s *Signer) Expire() time.Duration {
	return s.expire
}

// Sign issues a token for the user.
func (s *Signer) Sign(userID, role, name string) (token string, expiresAt time.Time, err error) {
	now := s.now()
	expiresAt = now.Add(s.expire)
	claims := &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Role:   role,
		Name:   name,
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}

	return token, expiresAt, nil
}

// Parse verifies the token and returns its claims.
func (s *Signer) Parse(token string) (*UserClaims, error) {
	claims := new(UserClaims)
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidToken, "parse token: %s", err.Error())
	}
	if claims.UserID == "" {
		return nil, errors.Wrap(ErrInvalidToken, "missing uid")
	}

	return claims, nil
}
