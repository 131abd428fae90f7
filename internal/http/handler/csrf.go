package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IssueSessionCSRF returns the session's CSRF token, creating one if missing.
// Responses are marked uncacheable so a stale token is never served.
func IssueSessionCSRF(authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := authsvc.UserSession.CSRFToken(sessions.Default(c), func() (string, error) {
			return randomTokenHex(32)
		})
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "could not issue csrf token"})
			return
		}

		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.JSON(http.StatusOK, gin.H{"csrf": token})
	}
}

func randomTokenHex(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
