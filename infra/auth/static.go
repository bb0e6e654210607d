package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kilianp07/livetrack/core/stream"
)

// ErrTokenExpired is returned when the configured token can no longer be used
// and nothing can replace it.
var ErrTokenExpired = fmt.Errorf("auth: token expired: %w", stream.ErrAuthUnavailable)

// Static serves a fixed bearer token. When the token is a JWT its exp claim is
// honoured; the signature is the broker's concern and is not verified here.
type Static struct {
	token string
	exp   time.Time
	now   func() time.Time
}

// NewStatic wraps token.
func NewStatic(token string) *Static {
	s := &Static{token: token, now: time.Now}
	if token == "" {
		return s
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.exp = exp.Time
		}
	}
	return s
}

func (s *Static) expired() bool {
	return !s.exp.IsZero() && !s.now().Before(s.exp)
}

// Token returns the token, or "" once it has expired.
func (s *Static) Token() string {
	if s.expired() {
		return ""
	}
	return s.token
}

// RefreshIfNeeded cannot obtain a new token; it fails once the token expired.
func (s *Static) RefreshIfNeeded(context.Context) (string, error) {
	if s.token == "" || s.expired() {
		return "", ErrTokenExpired
	}
	return s.token, nil
}
