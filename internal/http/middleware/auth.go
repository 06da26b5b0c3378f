package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

// TokenMiddleware guards the API with a shared bearer token. With an empty
// token every request passes, which is how the form is deployed behind the
// practice-management link.
type TokenMiddleware struct {
	log   *logger.Logger
	token string
}

func NewTokenMiddleware(log *logger.Logger, token string) *TokenMiddleware {
	return &TokenMiddleware{log: log.With("Middleware", "TokenMiddleware"), token: strings.TrimSpace(token)}
}

func (tm *TokenMiddleware) Enabled() bool { return tm != nil && tm.token != "" }

func (tm *TokenMiddleware) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tm.Enabled() {
			c.Next()
			return
		}
		got := extractTokenFromAll(c)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(tm.token)) != 1 {
			tm.log.Debug("Rejected request without valid token", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or invalid token", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
