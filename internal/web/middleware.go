package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskmarket-client/internal/session"
)

// RequireSession guards routes that need an authenticated session. The
// check is local: possession of the identity/token pair, not a backend
// round trip.
func RequireSession(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sessions.Current()
		if !snap.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}
