// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sourcing-marketplace-service/internal/auth"
)

const identityKey = "identity"

// Middleware que valida el JWT y guarda la identidad en el contexto.
// El rol ya viene resuelto en el claim, acá no se decide nada.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		ident, err := auth.ParseToken(jwtSecret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// GetIdentity saca la identidad autenticada del contexto.
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := value.(auth.Identity)
	return ident, ok
}
