package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/api/internal/auth"
	"github.com/taskdeck/api/internal/domain/identity"
)

// Keep this small interface so tests can fake it easily.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

type AuthMiddleware struct {
	verifier SessionVerifier
}

func NewAuthMiddleware(verifier SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// every rejection is the same generic 401; only expiry is distinguishable
const (
	msgInvalidCredentials = "Invalid credentials"
	msgSessionExpired     = "Session expired"
)

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, msgInvalidCredentials)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, msgInvalidCredentials)
			return
		}

		id, err := m.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			msg := msgInvalidCredentials

			if errors.Is(err, auth.ErrSessionExpired) {
				msg = msgSessionExpired
			}

			abortUnauthorized(c, msg)
			return
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, id.UserID)
		c.Set(ctxEmailKey, id.Email)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// Optional helpers so handlers don’t need to know the magic keys.

func IdentityFromContext(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return identity.Identity{}, false
	}

	userID, ok := v.(string)
	if !ok || userID == "" {
		return identity.Identity{}, false
	}

	email := ""
	if ev, ok := c.Get(ctxEmailKey); ok {
		if s, ok := ev.(string); ok {
			email = s
		}
	}

	return identity.Identity{UserID: userID, Email: email}, true
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
