package handler

import (
	"net/http"

	"github.com/edirooss/witness-console/internal/service"
	"github.com/gin-gonic/gin"
)

func Me(authsvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := authsvc.WhoAmI(c)
		if p == nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":              p.ID,
			"principal_type":  p.PrincipalType.String(),
			"credential_type": p.CredentialType.String(),
		})
	}
}
