package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"

	RoleAdmin  = "admin"
	RoleMember = "member"
)

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"code": "unauthorized", "message": message},
	})
}

// JWTAuth 驗證 Bearer token（HS256），把 sub 與 role 放進 gin context
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid claims")
			return
		}

		userID, ok := subjectAsInt(claims["sub"])
		if !ok {
			abortUnauthorized(c, "invalid subject")
			return
		}

		c.Set(ContextUserIDKey, userID)
		if role, ok := claims[ContextRoleKey].(string); ok {
			c.Set(ContextRoleKey, role)
		}
		c.Next()
	}
}

// subjectAsInt sub 可能是字串或數字，簽發端不一
func subjectAsInt(v interface{}) (int, bool) {
	switch sub := v.(type) {
	case string:
		id, err := strconv.Atoi(sub)
		if err != nil {
			return 0, false
		}
		return id, true
	case float64:
		return int(sub), true
	default:
		return 0, false
	}
}

// RequireRole 限定角色，需掛在 JWTAuth 之後
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRoleKey)
		name, isString := role.(string)
		if !ok || !isString || !allowed[name] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "forbidden", "message": "insufficient role"},
			})
			return
		}
		c.Next()
	}
}

// UserID 取出 JWTAuth 放入的使用者編號
func UserID(c *gin.Context) int {
	return c.GetInt(ContextUserIDKey)
}
