// Package logging は logrus ロガーの生成と、Gin 用のリクエストログミドルウェアを提供します。
package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDHeader はリクエストIDを受け渡すヘッダー名です。
	RequestIDHeader = "X-Request-ID"
	// ContextRequestIDKey は gin.Context にリクエストIDを保存するキーです。
	ContextRequestIDKey = "logging.request_id"
)

// New は JSON 形式で出力する logrus ロガーを作成します。
// level が解釈できない場合は info を使います。
func New(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// RequestLogger はリクエストIDを付与し、1リクエストにつき1行のアクセスログを出力します。
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request completed")
		case c.Writer.Status() >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

// FromContext はリクエストIDを付与したログエントリを返します。
func FromContext(c *gin.Context, logger logrus.FieldLogger) *logrus.Entry {
	entry := logger.WithField("path", c.Request.URL.Path)
	if id := c.GetString(ContextRequestIDKey); id != "" {
		entry = entry.WithField("request_id", id)
	}
	return entry
}
