package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"aikona/internal/pkg/jwtutil"
	"aikona/internal/transport/http/response"
)

const ContextUserIDKey = "user_id"

// AuthJWT admits requests carrying a valid "Bearer <token>" header.
// A missing token is 401, a bad or expired one 403.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "No token provided")
			c.Abort()
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusForbidden, response.CodeInvalidToken, "Invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the id stored by AuthJWT.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
