package middleware

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/vnit-lms/lms-service/internal/config"
	"github.com/vnit-lms/lms-service/internal/repositories"
	"github.com/vnit-lms/lms-service/internal/utils"
)

// InitAuth configures the Casdoor SDK from the service config. Must be
// called once before AuthRequired handles any request.
func InitAuth(cfg *config.Config) {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
}

// AuthRequired verifies the bearer token with Casdoor and resolves the
// caller's role from the local user record. Downstream handlers read
// "user_id" and "role" from the gin context.
func AuthRequired(users repositories.UserRepository, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing or malformed Authorization header",
			})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.User.Id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message": "Unknown user",
				})
				return
			}
			logger.LogError(err, "User lookup failed", "user_id", claims.User.Id)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "Internal server error",
			})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Account is deactivated",
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("role", user.Role)
		c.Next()
	}
}
