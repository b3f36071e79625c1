package session

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/phone-auth/internal/domain"
)

// Codec signs and verifies the client-held session token. The token is the
// only session backing; nothing is stored server-side per visitor.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a codec with the given signing secret and session lifetime.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured session lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

type sessionClaims struct {
	PendingSignup *PendingSignup      `json:"psu,omitempty"`
	SigninPhone   string              `json:"sip,omitempty"`
	User          *domain.SessionUser `json:"usr,omitempty"`
	jwt.RegisteredClaims
}

// Encode signs the session state into a compact token.
func (c *Codec) Encode(state State) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	switch state.Kind() {
	case KindPendingSignup:
		if pending, ok := state.PendingSignup(); ok {
			claims.PendingSignup = &pending
		}
	case KindPendingSignin:
		if phone, ok := state.SigninPhone(); ok {
			claims.SigninPhone = phone
		}
	case KindAuthenticated:
		if user, ok := state.User(); ok {
			claims.User = &user
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies a token and reconstructs the session state. Missing,
// expired or tampered tokens yield the anonymous state rather than an error;
// the visitor simply starts over.
func (c *Codec) Decode(token string) State {
	if token == "" {
		return Anonymous()
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Anonymous()
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return Anonymous()
	}

	state := Anonymous()
	switch {
	case claims.User != nil:
		state.SetUser(*claims.User)
	case claims.PendingSignup != nil:
		state.SetPendingSignup(claims.PendingSignup.Name, claims.PendingSignup.Phone)
	case claims.SigninPhone != "":
		state.SetSigninPhone(claims.SigninPhone)
	}
	return state
}
