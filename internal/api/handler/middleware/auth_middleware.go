package middleware

import (
	"net/http"
	"strings"

	"docgen"
	"docgen/internal/api/handler/response"
	"docgen/pkg"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a valid bearer token outside dev mode.
func AuthMiddleware(cfg docgen.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Mode == "dev" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Authorization header required"})
			return
		}

		// Bearer token format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Invalid authorization header format"})
			return
		}

		claims, err := pkg.ValidateToken(parts[1], cfg.JWTConfig.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Invalid or expired token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("userEmail", claims.Email)
		c.Set("userRole", claims.Role)
		c.Next()
	}
}

// RequireRole lets through only users whose token carries one of roles.
func RequireRole(cfg docgen.AppConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Mode == "dev" {
			c.Next()
			return
		}

		userRole, exists := c.Get("userRole")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "User role not found"})
			return
		}

		role, _ := userRole.(string)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.APIError{Message: "Insufficient permissions"})
	}
}
