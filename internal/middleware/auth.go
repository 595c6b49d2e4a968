package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/config"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/security"
)

// AdminAuth validates the bearer token and loads the admin record into the
// request context.
func AdminAuth(cfg *config.AppConfig, admins *repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAdminToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		admin, err := admins.GetByID(c.Request.Context(), claims.AdminID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin_not_found"})
			return
		}

		c.Set("current_admin", admin)

		c.Next()
	}
}
