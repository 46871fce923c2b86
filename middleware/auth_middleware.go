package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aadinath/api/utils"
)

// TokenCookie carries the admin JWT.
const TokenCookie = "jwt_token"

// TokenValidator is satisfied by utils.TokenIssuer.
type TokenValidator interface {
	ValidateJWT(token string) (*utils.Claims, error)
}

// AuthRequired admits requests with a matching X-API-KEY header or a valid
// JWT from the jwt_token cookie or a Bearer Authorization header. An empty
// apiKey disables key access.
func AuthRequired(tokens TokenValidator, apiKey string, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-KEY"); apiKey != "" && key != "" &&
			subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			c.Set("auth_method", "api_key")
			c.Next()
			return
		}

		tokenString, err := c.Cookie(TokenCookie)
		if err != nil || tokenString == "" {
			tokenString = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if tokenString == "" {
				log.Debugf("AuthRequired: no token on %s", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: No token provided"})
				return
			}
		}

		claims, err := tokens.ValidateJWT(tokenString)
		if err != nil {
			log.Warnf("AuthRequired: invalid JWT token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid or expired token"})
			return
		}

		c.Set("auth_method", "jwt")
		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}
