package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireLogin はセッションを検証するミドルウェアを返します。
// 失敗理由に関わらず同じ 401 を返し、後続のハンドラーは呼び出しません。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token := currentToken(s)

		userID, err := m.sessions.Resolve(token)
		if err != nil {
			if token != "" {
				m.log(c).Info("rejected session token")
				_ = m.clearCookie(s)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です",
			})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
