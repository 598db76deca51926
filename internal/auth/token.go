package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer fills the token field of the login response. Token validation
// and session handling belong to the callers of this API, not to this
// service; nothing in this codebase consumes the issued token.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	issuer string
}

var ErrInvalidSubject = errors.New("invalid token subject")

func NewTokenIssuer(secret string, expiry time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Issue signs an HS256 token for the authenticated user.
func (t *TokenIssuer) Issue(userID int64, name string) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidSubject
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}
