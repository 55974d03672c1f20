package auth

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/login-api/internal/users"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login は /api/auth/login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を送ってください",
		})
		return
	}

	user, err := m.users.Verify(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrMalformedRequest):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "email と password を送ってください",
			})
		case errors.Is(err, users.ErrInvalidCredentials):
			m.log(c).WithField("email", req.Email).Warn("login failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "メールアドレスまたはパスワードが正しくありません",
			})
		default:
			m.log(c).WithError(err).Error("credential verification failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ログイン処理に失敗しました",
			})
		}
		return
	}

	s := sessions.Default(c)
	// 既存のセッションがあれば引き継がずに失効させる
	if previous := currentToken(s); previous != "" {
		m.sessions.Revoke(previous)
	}

	issued, err := m.sessions.Issue(user)
	if err != nil {
		m.log(c).WithError(err).Error("session issue failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "セッションの発行に失敗しました",
		})
		return
	}

	s.Set(sessionKeyToken, issued.Token)
	if err := s.Save(); err != nil {
		m.sessions.Revoke(issued.Token)
		m.log(c).WithError(err).Error("session cookie save failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	m.log(c).WithFields(logrus.Fields{"user_id": user.ID}).Info("login succeeded")
	c.JSON(http.StatusOK, gin.H{
		"message":   "ログインしました",
		"expiresAt": issued.ExpiresAt,
	})
}

// Logout は /api/auth/logout のハンドラーです。
// トークンの有無や有効性に関わらず常に成功を返します。
func (m *Manager) Logout(c *gin.Context) {
	s := sessions.Default(c)
	if token := currentToken(s); token != "" {
		m.sessions.Revoke(token)
		m.log(c).Info("logout")
	}
	if err := m.clearCookie(s); err != nil {
		m.log(c).WithError(err).Warn("session cookie clear failed")
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "ログアウトしました",
	})
}
