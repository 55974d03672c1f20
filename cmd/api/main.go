// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/login-api/internal/config"
	"github.com/yourusername/login-api/internal/jobs"
	"github.com/yourusername/login-api/internal/logging"
	"github.com/yourusername/login-api/internal/session"
	"github.com/yourusername/login-api/internal/users"
)

const devPassword = "admin"

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stdout)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	userStore, err := buildUserStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to build user store: %v", err)
	}

	secret, err := sessionSecret(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to prepare session secret: %v", err)
	}

	authenticator := session.NewAuthenticator(
		session.WithMaxLifetime(cfg.SessionMaxLifetime),
		session.WithIdleTimeout(cfg.SessionIdleTimeout),
	)

	reaper, err := jobs.NewReaper(authenticator, cfg.SessionSweepInterval, logger)
	if err != nil {
		logger.Fatalf("Failed to set up session reaper: %v", err)
	}
	if reaper != nil {
		reaper.Start()
	}

	// Gin のデフォルトロガーの代わりに logrus のアクセスログを使う
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger(logger))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		logging.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{logging.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	setupRoutes(router, routeDeps{
		cfg:           cfg,
		users:         userStore,
		sessions:      authenticator,
		sessionSecret: secret,
		logger:        logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting API server on %s (mode: %s)", server.Addr, cfg.GinMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if reaper != nil {
		if err := reaper.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Warn("session reaper did not stop cleanly")
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
}

// buildUserStore は設定から初期ユーザーを組み立てます。
// 開発モードで APP_PASSWORD_HASH が無い場合は devPassword をハッシュ化して使います。
func buildUserStore(cfg *config.Config, logger logrus.FieldLogger) (*users.MemoryStore, error) {
	hash := cfg.AppPasswordHash
	if hash == "" {
		if cfg.IsRelease() {
			return nil, errors.New("APP_PASSWORD_HASH is required in release mode")
		}
		generated, err := users.HashPassword(devPassword, cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		hash = generated
		logger.WithField("email", cfg.AppUserEmail).Warn("APP_PASSWORD_HASH is not set; using the development password")
	}

	return users.NewMemoryStore(users.UserRecord{
		ID:           1,
		Email:        cfg.AppUserEmail,
		PasswordHash: hash,
		Profile: users.Profile{
			Name:      cfg.AppUserName,
			LastName:  cfg.AppUserLastName,
			BirthDate: cfg.AppUserBirthDate,
		},
	})
}

// sessionSecret は Cookie 署名鍵を返します。
// 開発モードで未設定の場合は起動ごとにランダムな鍵を作ります。
func sessionSecret(cfg *config.Config, logger logrus.FieldLogger) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	if cfg.IsRelease() {
		return nil, errors.New("SESSION_SECRET is required in release mode")
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	logger.Warn("SESSION_SECRET is not set; using an ephemeral secret")
	return buf, nil
}
