package principal

import "github.com/gin-gonic/gin"

const principalKey = "witness.principal"

// SetPrincipal attaches p to the request context.
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the authenticated principal, or nil.
func GetPrincipal(c *gin.Context) *Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}
