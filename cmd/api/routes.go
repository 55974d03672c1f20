package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/login-api/internal/api"
	"github.com/yourusername/login-api/internal/auth"
	"github.com/yourusername/login-api/internal/config"
	"github.com/yourusername/login-api/internal/session"
	"github.com/yourusername/login-api/internal/users"
)

const serviceVersion = "0.1.0"

// routeDeps は setupRoutes に渡す依存関係です。
type routeDeps struct {
	cfg           *config.Config
	users         users.Store
	sessions      *session.Authenticator
	sessionSecret []byte
	logger        logrus.FieldLogger
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "login-api",
		"version": serviceVersion,
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, deps routeDeps) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	authManager := auth.NewManager(deps.users, deps.sessions, auth.CookieOptions{
		Name:   deps.cfg.SessionCookieName,
		Secure: deps.cfg.CookieSecure,
		MaxAge: deps.sessions.MaxLifetime(),
	}, deps.logger)

	group := router.Group("/api")
	group.Use(authManager.SessionMiddleware(deps.sessionSecret))
	{
		authRoutes := group.Group("/auth")
		{
			authRoutes.POST("/login", authManager.Login)
			// ログアウトは無効なトークンでも成功させるため RequireLogin を通さない
			authRoutes.POST("/logout", authManager.Logout)
		}

		protected := group.Group("")
		protected.Use(authManager.RequireLogin())
		{
			protected.GET("/profile", api.ProfileHandler(deps.users, deps.logger))
			protected.POST("/form", api.FormHandler)
			protected.GET("/contacts", api.ContactsHandler)
		}
	}
}

