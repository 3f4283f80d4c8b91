// Package utils provides helper functions for token issuance and password
// hashing shared by handlers and middleware.
package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is returned when a token fails signature or format
// validation.  ErrTokenExpired is returned when the token is well formed
// and correctly signed but its expiry has elapsed.  Callers must be able
// to tell these apart even though both currently map to the same HTTP
// status: an expired refresh token forces a re-login while an invalid one
// is rejected outright.
var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// SignedToken is a signed HS256 JWT along with its expiry.  Access and
// refresh tokens share this shape; they differ only in lifetime and in
// the secret used to sign them.  Keeping the two secrets distinct means
// possession of one secret can never forge the other token class.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken signs a short-lived JWT for a user.  The subject claim
// carries the user ID; ttlMin controls the lifetime in minutes.
func NewAccessToken(secret string, userID uint64, ttlMin int) (SignedToken, error) {
	return newToken(secret, userID, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken signs a long-lived JWT for a user with the refresh
// secret.  ttlDays controls the lifetime in days.
func NewRefreshToken(secret string, userID uint64, ttlDays int) (SignedToken, error) {
	return newToken(secret, userID, time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret string, userID uint64, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken validates raw against the given secret and returns the user
// ID from the subject claim.  The caller selects the token class by the
// secret it passes: the access secret verifies access tokens, the refresh
// secret verifies refresh tokens, and nothing else.  Returns
// ErrTokenExpired when the expiry has elapsed and ErrTokenInvalid for any
// other failure.
func VerifyToken(secret, raw string) (uint64, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
