package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiresAt extracts the expiry claim from a JWT without verifying its
// signature. The engine is a token consumer, not an issuer: verification is
// the remote's job, but checking expiry locally avoids burning a sync
// attempt on a request the remote will certainly reject with 401.
//
// Returns a zero time when the token carries no exp claim.
func TokenExpiresAt(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}

	return exp.Time, nil
}

// IsTokenExpired reports whether the token's exp claim has passed, applying
// the given leeway. Tokens without an exp claim never report expired.
func IsTokenExpired(tokenString string, leeway time.Duration) (bool, error) {
	expiresAt, err := TokenExpiresAt(tokenString)
	if err != nil {
		return false, err
	}
	if expiresAt.IsZero() {
		return false, nil
	}

	return time.Now().Add(leeway).After(expiresAt), nil
}

// ParseBearerToken extracts the token part of an "Authorization: Bearer ..."
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Split(strings.TrimSpace(authorizationHeader), " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
