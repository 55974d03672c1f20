// Package api はログイン後に利用できるエンドポイントを提供します。
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/login-api/internal/auth"
	"github.com/yourusername/login-api/internal/logging"
	"github.com/yourusername/login-api/internal/users"
)

// UserFinder はユーザーIDからプロフィールを引くためのインターフェースです。
type UserFinder interface {
	FindByID(id int64) (*users.UserRecord, error)
}

// Contact は連絡先一覧の1件です。
type Contact struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
}

var defaultContacts = []Contact{
	{Name: "John", LastName: "Doe", Email: "john@example.com"},
	{Name: "Jane", LastName: "Doe", Email: "jane@example.com"},
	{Name: "Alice", LastName: "Smith", Email: "alice@example.com"},
	{Name: "Bob", LastName: "Johnson", Email: "bob@example.com"},
	{Name: "Emma", LastName: "Williams", Email: "emma@example.com"},
}

type formRequest struct {
	Text string `json:"text" form:"text" binding:"required"`
}

// ProfileHandler は GET /api/profile のハンドラーを返します。
func ProfileHandler(finder UserFinder, logger logrus.FieldLogger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		userID, ok := auth.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "ログインが必要です",
			})
			return
		}

		user, err := finder.FindByID(userID)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "ユーザーが見つかりません",
				})
				return
			}
			logging.FromContext(c, logger).WithError(err).WithField("user_id", userID).Error("profile lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "ユーザー情報の取得に失敗しました",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"name":      user.Profile.Name,
			"lastName":  user.Profile.LastName,
			"email":     user.Email,
			"birthDate": user.Profile.BirthDate,
		})
	}
}

// FormHandler は POST /api/form のハンドラーです。受け取った text を小文字にして返します。
func FormHandler(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "text を送ってください",
		})
		return
	}
	c.String(http.StatusOK, strings.ToLower(req.Text))
}

// ContactsHandler は GET /api/contacts のハンドラーです。
func ContactsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, defaultContacts)
}
