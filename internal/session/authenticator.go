// Package session はログイン後のセッショントークンの発行・検証・失効を扱います。
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yourusername/login-api/internal/users"
)

const tokenBytes = 32

var (
	// ErrInvalidOrExpiredToken は未知・失効済み・期限切れのトークンで返します。
	ErrInvalidOrExpiredToken = errors.New("invalid or expired session token")

	// DefaultMaxLifetime は発行からの絶対的な有効期限です。
	DefaultMaxLifetime = 12 * time.Hour
	// DefaultIdleTimeout は最後の利用からの有効期限です。
	DefaultIdleTimeout = 30 * time.Minute
)

// Session は発行済みセッションのスナップショットです。
// Token は Issue の戻り値でのみ設定され、テーブルにはハッシュだけを保持します。
type Session struct {
	Token     string
	UserID    int64
	IssuedAt  time.Time
	LastSeen  time.Time
	ExpiresAt time.Time
}

type entry struct {
	userID   int64
	issuedAt time.Time
	lastSeen time.Time
}

// Option は Authenticator の設定を変更します。
type Option func(*Authenticator)

// WithMaxLifetime は絶対有効期限を設定します。
func WithMaxLifetime(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.maxLifetime = d
		}
	}
}

// WithIdleTimeout は無操作タイムアウトを設定します。
func WithIdleTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.idleTimeout = d
		}
	}
}

// WithClock は現在時刻の取得元を差し替えます（テスト用）。
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// WithRandom はトークン生成に使う乱数源を差し替えます（テスト用）。
func WithRandom(r io.Reader) Option {
	return func(a *Authenticator) {
		a.random = r
	}
}

// Authenticator はアクティブなセッションの表を所有します。
// プロセスごとに1つ作成し、ハンドラーへ参照で渡します。
type Authenticator struct {
	mu       sync.Mutex
	sessions map[string]*entry

	maxLifetime time.Duration
	idleTimeout time.Duration
	now         func() time.Time
	random      io.Reader
}

// NewAuthenticator は Authenticator を作成します。
func NewAuthenticator(opts ...Option) *Authenticator {
	a := &Authenticator{
		sessions:    make(map[string]*entry),
		maxLifetime: DefaultMaxLifetime,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxLifetime は絶対有効期限を返します（Cookie の MaxAge に利用）。
func (a *Authenticator) MaxLifetime() time.Duration {
	return a.maxLifetime
}

// Issue は認証済みユーザーに新しいセッションを発行します。
func (a *Authenticator) Issue(user *users.UserRecord) (*Session, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}

	token, err := a.generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := a.now()
	e := &entry{userID: user.ID, issuedAt: now, lastSeen: now}

	a.mu.Lock()
	a.sessions[hashToken(token)] = e
	a.mu.Unlock()

	return &Session{
		Token:     token,
		UserID:    e.userID,
		IssuedAt:  e.issuedAt,
		LastSeen:  e.lastSeen,
		ExpiresAt: a.expiresAt(e),
	}, nil
}

// Resolve はトークンに紐づくユーザー ID を返します。
// 成功するたびに最終利用時刻を更新します（絶対有効期限は延長しません）。
func (a *Authenticator) Resolve(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidOrExpiredToken
	}
	key := hashToken(token)
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.sessions[key]
	if !ok {
		return 0, ErrInvalidOrExpiredToken
	}
	if !now.Before(a.expiresAt(e)) {
		delete(a.sessions, key)
		return 0, ErrInvalidOrExpiredToken
	}
	e.lastSeen = now
	return e.userID, nil
}

// Revoke はセッションを削除します。存在しないトークンでもエラーにしません。
func (a *Authenticator) Revoke(token string) {
	if token == "" {
		return
	}
	key := hashToken(token)

	a.mu.Lock()
	delete(a.sessions, key)
	a.mu.Unlock()
}

// Sweep は期限切れのセッションをまとめて削除し、削除件数を返します。
func (a *Authenticator) Sweep(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for key, e := range a.sessions {
		if !now.Before(a.expiresAt(e)) {
			delete(a.sessions, key)
			removed++
		}
	}
	return removed
}

// Len はアクティブなセッション数を返します。
func (a *Authenticator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// Now は Authenticator が使う現在時刻を返します。
func (a *Authenticator) Now() time.Time {
	return a.now()
}

func (a *Authenticator) expiresAt(e *entry) time.Time {
	idle := e.lastSeen.Add(a.idleTimeout)
	hard := e.issuedAt.Add(a.maxLifetime)
	if idle.Before(hard) {
		return idle
	}
	return hard
}

func (a *Authenticator) generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(a.random, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
