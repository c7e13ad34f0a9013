package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gearbook/internal/domain"
	jwtsvc "gearbook/internal/pkg/jwt"
	"gearbook/internal/pkg/response"
)

const (
	UserIDKey = "user_id"
	TenantKey = "company_id"
	RoleKey   = "role"
)

// JWTAuth validates the bearer token and stores the caller's user, company
// and role in the context. Tokens without a company are rejected: every
// route behind it is tenant scoped.
func JWTAuth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Empty token")
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			return
		}
		if claims.CompanyID <= 0 {
			response.Abort(c, http.StatusForbidden, "NO_COMPANY", "Token is not bound to a company")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(TenantKey, claims.CompanyID)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// Tenant returns the company the request is scoped to. When there is none
// it writes a 401 and returns false.
func Tenant(c *gin.Context) (domain.TenantID, bool) {
	tenant := domain.TenantID(c.GetInt64(TenantKey))
	if !tenant.Valid() {
		response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0, false
	}
	return tenant, true
}
