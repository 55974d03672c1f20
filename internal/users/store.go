// Package users はユーザー情報の保持とパスワード検証を提供します。
package users

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials はメールアドレス不明・パスワード不一致のどちらでも返します。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedRequest は必須項目が空のときに返します。
	ErrMalformedRequest = errors.New("malformed request")
	// ErrUserNotFound は ID に対応するユーザーがいない場合に返します。
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCost は bcrypt のコストが範囲外のときに返します。
	ErrInvalidCost = errors.New("bcrypt cost out of range")
)

// bcrypt は先頭72バイトしか見ないため、それより長い入力は一致とみなさない
const maxPasswordBytes = 72

// Profile は表示用の属性です。中身は解釈せずそのまま返します。
type Profile struct {
	Name      string `json:"name"`
	LastName  string `json:"lastName"`
	BirthDate string `json:"birthDate"`
}

// UserRecord はログイン可能なユーザーを表します。
type UserRecord struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	Profile      Profile `json:"profile"`
}

// Store は認証処理から見たユーザーストアです。
type Store interface {
	Verify(email, password string) (*UserRecord, error)
	FindByID(id int64) (*UserRecord, error)
}

// MemoryStore は起動時に渡されたユーザーをメモリ上に保持します。
// 構築後は読み取り専用のためロックは不要です。
type MemoryStore struct {
	byEmail map[string]*UserRecord
	byID    map[int64]*UserRecord
	dummy   []byte
}

// NewMemoryStore は MemoryStore を作成します。
// メールアドレスは大文字小文字を区別して完全一致で扱います（正規化しません）。
func NewMemoryStore(records ...UserRecord) (*MemoryStore, error) {
	s := &MemoryStore{
		byEmail: make(map[string]*UserRecord, len(records)),
		byID:    make(map[int64]*UserRecord, len(records)),
	}
	cost := 0
	for i := range records {
		rec := records[i]
		if rec.Email == "" {
			return nil, fmt.Errorf("user %d: email is required", rec.ID)
		}
		if rec.PasswordHash == "" {
			return nil, fmt.Errorf("user %s: password hash is required", rec.Email)
		}
		if _, ok := s.byEmail[rec.Email]; ok {
			return nil, fmt.Errorf("duplicate email: %s", rec.Email)
		}
		if _, ok := s.byID[rec.ID]; ok {
			return nil, fmt.Errorf("duplicate user id: %d", rec.ID)
		}
		if c, err := bcrypt.Cost([]byte(rec.PasswordHash)); err == nil && c > cost {
			cost = c
		}
		s.byEmail[rec.Email] = &rec
		s.byID[rec.ID] = &rec
	}

	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	// 存在しないメールアドレスでも同じコストの比較を1回行うためのダミーハッシュ
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	s.dummy = dummy
	return s, nil
}

// Verify はメールアドレスとパスワードを検証し、一致したユーザーを返します。
func (s *MemoryStore) Verify(email, password string) (*UserRecord, error) {
	if email == "" || password == "" {
		return nil, ErrMalformedRequest
	}

	rec, ok := s.byEmail[email]
	if !ok || len(password) > maxPasswordBytes {
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return nil, ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password))
	switch {
	case err == nil:
		clone := *rec
		return &clone, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("failed to compare password hash for user %d: %w", rec.ID, err)
	}
}

// FindByID は ID でユーザーを検索します。
func (s *MemoryStore) FindByID(id int64) (*UserRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *rec
	return &clone, nil
}

// HashPassword は bcrypt でハッシュ化したパスワードを返します。
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrMalformedRequest
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
