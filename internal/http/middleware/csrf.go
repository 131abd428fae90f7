package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/edirooss/witness-console/internal/principal"
	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ValidateSessionCSRF checks CSRF tokens for session-authenticated requests.
//
//   - Skips validation for principals that did not authenticate by session.
//   - Applies only to mutating methods (POST, PUT, PATCH, DELETE).
//   - Aborts with 400 Bad Request if the token is missing or invalid.
func ValidateSessionCSRF(authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := principal.GetPrincipal(c); p != nil && p.CredentialType != principal.Session {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		want := authsvc.UserSession.ExpectedCSRF(sessions.Default(c))
		got := c.GetHeader("X-CSRF-Token")

		if want == "" || got == "" ||
			subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				gin.H{"message": "invalid csrf token"})
			return
		}

		c.Next()
	}
}
