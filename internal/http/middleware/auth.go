package middleware

import (
	"net/http"

	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
)

// Authentication blocks access unless the request carries a valid operator session.
// Responds with 401 Unauthorized otherwise.
func Authentication(authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authsvc.AuthenticateWithSession(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}
		c.Next()
	}
}
