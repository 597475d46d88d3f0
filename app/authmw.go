package app

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rental_backend/session"
)

const AuthCookie = "rental_session"

func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Request.Cookie(AuthCookie); err == nil {
		return ck.Value
	}
	return ""
}

// AuthRequired resolves the caller's token against the redis session store and
// puts userID / isAdmin into the request context.
func AuthRequired(authSess *session.AuthSessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := authSess.Get(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		c.Set("userID", as.UserID)
		c.Set("isAdmin", as.IsAdmin)
		c.Next()
	}
}

// AdminOnly gates staff endpoints; run it after AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
