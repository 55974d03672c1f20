// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const minSessionSecretLength = 32

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port     string // APIサーバーのポート番号
	GinMode  string // Ginの実行モード (debug, release, test)
	LogLevel string // logrus のログレベル

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッション設定
	SessionSecret        string        // Cookie署名用の秘密鍵
	SessionCookieName    string        // セッションCookie名
	CookieSecure         bool          // Secure属性（HTTPS以外の開発環境でのみ false にする）
	SessionMaxLifetime   time.Duration // 発行からの絶対有効期限
	SessionIdleTimeout   time.Duration // 無操作タイムアウト
	SessionSweepInterval time.Duration // 期限切れセッション掃除の間隔（0以下で無効）

	// 認証情報
	BcryptCost       int    // bcrypt のコスト
	AppUserEmail     string // 初期ユーザーのメールアドレス
	AppPasswordHash  string // bcryptでハッシュ化されたパスワード
	AppUserName      string // 初期ユーザーの名
	AppUserLastName  string // 初期ユーザーの姓
	AppUserBirthDate string // 初期ユーザーの生年月日
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// セッション設定
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionCookieName:    getEnv("SESSION_COOKIE_NAME", "sessionID"),
		CookieSecure:         getEnvAsBool("COOKIE_SECURE", true),
		SessionMaxLifetime:   getEnvAsDuration("SESSION_MAX_LIFETIME", 12*time.Hour),
		SessionIdleTimeout:   getEnvAsDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		// 認証情報（既定値は開発用の初期ユーザー）
		BcryptCost:       getEnvAsInt("BCRYPT_COST", 10),
		AppUserEmail:     getEnv("APP_USER_EMAIL", "admin@admin.com"),
		AppPasswordHash:  getEnv("APP_PASSWORD_HASH", ""),
		AppUserName:      getEnv("APP_USER_NAME", "David"),
		AppUserLastName:  getEnv("APP_USER_LAST_NAME", "Cruz"),
		AppUserBirthDate: getEnv("APP_USER_BIRTH_DATE", "2004-07-09"),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// IsRelease は本番モードかどうかを返します。
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.SessionMaxLifetime <= 0 {
		return fmt.Errorf("SESSION_MAX_LIFETIME must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.AppUserEmail == "" {
		return fmt.Errorf("APP_USER_EMAIL must not be empty")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	// ローカル開発では秘密鍵・ハッシュは任意（起動時に開発用の値を補う）
	if c.IsRelease() {
		if len(c.SessionSecret) < minSessionSecretLength {
			return fmt.Errorf("SESSION_SECRET must be at least %d bytes in release mode", minSessionSecretLength)
		}
		if c.AppPasswordHash == "" {
			return fmt.Errorf("APP_PASSWORD_HASH is required in release mode")
		}
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration（例: "30m"）として取得します。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
