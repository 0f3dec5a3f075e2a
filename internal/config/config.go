package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string `env:"PORT" envDefault:"8080"` // サーバーポート

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"` // postgres/sqlite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"storefront.db"`

	DatabaseURL      string `env:"DATABASE_URL"` // あればPOSTGRES_*より優先
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	SessionSecret string `env:"SESSION_SECRET"` // セッショントークン検証用

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	GoEnv    string `env:"GO_ENV" envDefault:"dev"` // dev/prod

	RedisAddr       string        `env:"REDIS_ADDR"` // 空なら商品キャッシュなし
	ProductCacheTTL time.Duration `env:"PRODUCT_CACHE_TTL" envDefault:"5m"`

	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","` // 空ならイベント発行なし
	KafkaWishlistTopic string   `env:"KAFKA_WISHLIST_TOPIC" envDefault:"wishlist.events"`

	// クライアント（CLI）用
	APIBaseURL   string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	SessionToken string `env:"SESSION_TOKEN"`
}

// Loadは.env（任意）を読んでから環境変数をパースする。
// envFileが空なら カレントの.env を試す。無くてもエラーにしない。
func Load(envFile string) (Config, error) {
	if err := loadDotenv(envFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func loadDotenv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validateはserveに必要な値をチェック
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite: %q", c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required")
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
		if c.PostgresPort <= 0 {
			return fmt.Errorf("POSTGRES_PORT must be positive")
		}
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug|info|warn|error: %q", c.LogLevel)
	}
	switch c.GoEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("GO_ENV must be dev or prod: %q", c.GoEnv)
	}
	if c.ProductCacheTTL < 0 {
		return fmt.Errorf("PRODUCT_CACHE_TTL must not be negative")
	}
	return nil
}

// DSNはPostgres接続文字列を返す
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addrはecho.Startに渡す形式（:8080）
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}
