// Package auth は認証・認可機能を提供します。
package auth

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/login-api/internal/logging"
	"github.com/yourusername/login-api/internal/session"
	"github.com/yourusername/login-api/internal/users"
)

const (
	DefaultCookieName = "sessionID"
	sessionKeyToken   = "token"
)

// ContextUserIDKey は、ハンドラー間でログイン済みユーザーIDを共有するためのキーです。
const ContextUserIDKey = "auth.user_id"

// Sessions はセッションの発行・検証・失効を行う実装が満たすインターフェースです。
type Sessions interface {
	Issue(user *users.UserRecord) (*session.Session, error)
	Resolve(token string) (int64, error)
	Revoke(token string)
}

// CookieOptions はセッションCookieの属性です。HttpOnly と SameSite=Strict は常に付与します。
type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Manager は認証処理に必要な依存をまとめた構造体です。
type Manager struct {
	users    users.Store
	sessions Sessions
	cookie   CookieOptions
	logger   logrus.FieldLogger
}

// NewManager は認証マネージャーを作成します。
func NewManager(store users.Store, sessions Sessions, cookie CookieOptions, logger logrus.FieldLogger) *Manager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		users:    store,
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
	}
}

// SessionMiddleware は署名付きCookieストアを使うセッションミドルウェアを返します。
func (m *Manager) SessionMiddleware(secret []byte) gin.HandlerFunc {
	store := cookie.NewStore(secret)
	store.Options(m.cookieOptions(int(m.cookie.MaxAge.Seconds())))
	return sessions.Sessions(m.cookie.Name, store)
}

// UserID はログイン済みユーザーのIDを返します。RequireLogin の後でのみ有効です。
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func (m *Manager) cookieOptions(maxAge int) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (m *Manager) log(c *gin.Context) *logrus.Entry {
	return logging.FromContext(c, m.logger)
}

func currentToken(s sessions.Session) string {
	token, _ := s.Get(sessionKeyToken).(string)
	return token
}

// clearCookie はセッションCookieを削除します。
func (m *Manager) clearCookie(s sessions.Session) error {
	s.Clear()
	s.Options(m.cookieOptions(-1))
	return s.Save()
}
