// Package token signs and verifies the time-limited account confirmation tokens.
//
// A token is an HS512 JWT whose "confirm" claim carries the user id. Tokens signed with
// another key, altered in transit or past their "exp" claim are rejected.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/visioweb/askboard/util/common"
)

// DefaultExpiration is the lifetime of a confirmation token when none is given.
const DefaultExpiration = time.Hour

var (
	ErrInvalid = errors.New("invalid confirmation token")
	ErrExpired = errors.New("confirmation token expired")
)

type confirmClaims struct {
	Confirm int `json:"confirm"`
	jwt.RegisteredClaims
}

// Signer issues and checks confirmation tokens with one secret key.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return NewSignerAt(secret, time.Now)
}

// NewSignerAt is NewSigner with a custom clock.
func NewSignerAt(secret string, now func() time.Time) *Signer {
	return &Signer{secret: []byte(secret), now: now}
}

// Sign returns a token for userID valid for expiration. A non-positive expiration
// falls back to DefaultExpiration.
func (s *Signer) Sign(userID int, expiration time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", common.NewError("confirmation tokens need a secret key")
	}
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	now := s.now()
	claims := confirmClaims{
		Confirm: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
}

// Verify returns the user id carried by tok.
func (s *Signer) Verify(tok string) (int, error) {
	if len(s.secret) == 0 {
		return 0, ErrInvalid
	}
	claims := &confirmClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid || claims.Confirm <= 0 {
		return 0, ErrInvalid
	}
	return claims.Confirm, nil
}
