package middleware

import (
	"net/http"
	"strings"

	"feedbackportal/pkg/utils"
	"github.com/gin-gonic/gin"
)

// AdminCookieName is the HTTP-only cookie carrying the admin token.
const AdminCookieName = "admin_token"

const claimsKey = "claims"

// JWTAuthMiddleware accepts a Bearer token or, failing that, the admin cookie.
func JWTAuthMiddleware(issuer *utils.JWTIssuer) gin.HandlerFunc {

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			if cookie, err := c.Cookie(AdminCookieName); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		claims, err := issuer.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Set("Role", claims.Role)
		c.Next()
	}
}

func RoleMiddleware(requiredRole string) gin.HandlerFunc {

	return func(c *gin.Context) {
		role := c.GetString("Role")

		if role != requiredRole {
			utils.RespondError(c, http.StatusForbidden, "Forbidden: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by JWTAuthMiddleware, or nil.
func ClaimsFromContext(c *gin.Context) *utils.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
