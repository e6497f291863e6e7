package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie is the cookie carrying the browsing session id.
const SessionCookie = "hinis_sid"

// SessionIDKey is the context key holding the session id.
const SessionIDKey = "session_id"

// SessionConfig controls the session cookie.
type SessionConfig struct {
	TTL    time.Duration
	Secure bool
	Domain string
}

// Session assigns every request a session id. A missing or malformed
// cookie is replaced with a fresh UUID; the cookie is refreshed on every
// response so that active sessions keep sliding.
func Session(cfg SessionConfig) gin.HandlerFunc {
	maxAge := int(cfg.TTL / time.Second)

	return func(c *gin.Context) {
		sid, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, maxAge, "/", cfg.Domain, cfg.Secure, true)
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// SessionID returns the id set by Session, or "" outside it.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
