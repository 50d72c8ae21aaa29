package middleware

import (
	"net/http"
	"strings"

	"tour_verify/internal/domain/user/model"
	"tour_verify/pkg/response"
	"tour_verify/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		// 将 userID 和 role 存入上下文
		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// requireRole 角色校验
func requireRole(c *gin.Context, want int) bool {
	role, exists := c.Get("role")
	if !exists {
		response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
		c.Abort()
		return false
	}

	roleInt, ok := role.(int)
	if !ok {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Invalid role format")
		c.Abort()
		return false
	}

	if roleInt != want {
		return false
	}
	return true
}

// TouristMiddleware 仅限游客访问
func TouristMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRole(c, model.RoleTourist) {
			if !c.IsAborted() {
				response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Tourist account required")
				c.Abort()
			}
			return
		}
		c.Next()
	}
}

// OperatorMiddleware 仅限景区运营者访问
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRole(c, model.RoleOperator) {
			if !c.IsAborted() {
				response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Operator account required")
				c.Abort()
			}
			return
		}
		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireRole(c, model.RoleAdmin) {
			if !c.IsAborted() {
				response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Admin permission required")
				c.Abort()
			}
			return
		}
		c.Next()
	}
}
