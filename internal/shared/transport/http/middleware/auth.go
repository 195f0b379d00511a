package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Vic2Economy/internal/shared/security"
	"Vic2Economy/internal/shared/transport"
)

const ClaimsKey = "claims"

// Auth 校验 Bearer 令牌和 scope，通过后把 claims 放进 gin.Context。
// 浏览器的 WebSocket 无法设置请求头，因此也接受 `?token=` 查询参数。
func Auth(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if tok := c.Query("token"); tok != "" {
				header = "Bearer " + tok
			}
		}
		claims, err := security.ParseBearer(header)
		if err != nil {
			transport.SetErrorReason(c.Request.Context(), err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": transport.Unauthorized, "msg": "未登录或令牌无效"})
			return
		}
		if !claims.Allows(scope) {
			transport.SetErrorReason(c.Request.Context(), "scope "+scope+" denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": transport.Forbidden, "msg": "无权访问"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
