package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/majorjayant/siteconfig/internal/auth"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUsernameKey = "username"
)

// Auth attaches the claims of a valid bearer token to the request. Requests
// without one proceed anonymously; handlers decide which operations need it.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwt == nil || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
			c.Next()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUsernameKey, claims.Username)
		c.Next()
	}
}

// ClaimsFromContext returns the claims attached by Auth, if any.
func ClaimsFromContext(c *gin.Context) (*iauth.Claims, bool) {
	value, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*iauth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
