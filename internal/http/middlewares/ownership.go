package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireOwnership compares the :user_id path parameter against the
// authenticated identity. A mismatch answers 404, not 403, so probing
// another user's paths is indistinguishable from hitting paths that do
// not exist. On a match the effective owner id goes on the context, and
// that value is the only owner scope downstream handlers may use.
func RequireOwnership(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			// RequireAuth did not run or did not populate the identity
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		pathOwner := c.Param(param)

		if pathOwner == "" || pathOwner != id.UserID {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "not_found",
					"message": "Not found",
				},
			})
			return
		}

		c.Set(ctxOwnerIDKey, id.UserID)

		c.Next()
	}
}

func OwnerFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxOwnerIDKey)
	if !ok {
		return "", false
	}
	owner, ok := v.(string)
	return owner, ok && owner != ""
}
