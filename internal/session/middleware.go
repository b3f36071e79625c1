package session

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/phone-auth/internal/config"
)

const sessionKey = "session_state"

// Session is the per-request view of the visitor's state. Handlers mutate it
// through the State accessors; the middleware persists it back into the
// cookie only when something changed.
type Session struct {
	State
	dirty bool
}

// Touch marks the session as mutated so the middleware re-issues the cookie.
func (s *Session) Touch() {
	s.dirty = true
}

// Manager decodes the session cookie before each handler and re-issues it
// afterwards when the handler mutated the state.
type Manager struct {
	codec      *Codec
	cookieName string
	secure     bool
}

// NewManager constructs the session manager from config.
func NewManager(cfg config.SessionConfig) *Manager {
	return &Manager{
		codec:      NewCodec(cfg.Secret, cfg.TTL()),
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
	}
}

// Codec exposes the underlying codec, mainly for tests.
func (m *Manager) Codec() *Codec {
	return m.codec
}

// Handle loads the session for the request and saves it after the handler.
func (m *Manager) Handle(c *fiber.Ctx) error {
	sess := &Session{State: m.codec.Decode(c.Cookies(m.cookieName))}
	c.Locals(sessionKey, sess)

	err := c.Next()

	if sess.dirty {
		m.write(c, sess)
	}
	return err
}

func (m *Manager) write(c *fiber.Ctx, sess *Session) {
	if sess.Kind() == KindAnonymous {
		c.Cookie(&fiber.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   m.secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return
	}

	token, err := m.codec.Encode(sess.State)
	if err != nil {
		// An encode failure must not leak a half-written session; drop the cookie.
		c.Cookie(&fiber.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   m.secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Expires:  time.Now().Add(m.codec.TTL()),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// FromContext retrieves the request's session.
func FromContext(c *fiber.Ctx) (*Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*Session)
	return sess, ok
}
