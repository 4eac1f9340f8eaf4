package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clinic-api/internal/service"
)

const authSubjectKey = "auth_subject"

// TokenAuthMiddleware valida el bearer token y guarda el subject en el contexto.
// Acepta Authorization: Bearer y, por compatibilidad con clientes
// existentes, el query param ?token=.
func TokenAuthMiddleware(tokenServ *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenServ == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token service not configured"})
			c.Abort()
			return
		}

		raw := ""
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header != "" && strings.HasPrefix(strings.ToLower(header), "bearer ") {
			raw = strings.TrimSpace(header[len("Bearer "):])
		}
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		subject, err := tokenServ.Verify(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}

// GetAuthSubject obtiene el email autenticado desde el contexto.
func GetAuthSubject(c *gin.Context) (string, bool) {
	val, ok := c.Get(authSubjectKey)
	if !ok {
		return "", false
	}
	subject, ok := val.(string)
	return subject, ok
}
