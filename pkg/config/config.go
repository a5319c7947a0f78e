package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	BankGateway  BankGatewayConfig
	Sweeper      SweeperConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLATEFUL_APP_ENV" required:"true"`
	Port         string `envconfig:"PLATEFUL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLATEFUL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLATEFUL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PLATEFUL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PLATEFUL_DB_DSN"`
	Driver string `envconfig:"PLATEFUL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLATEFUL_DB_HOST"`
	LegacyPort     int    `envconfig:"PLATEFUL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLATEFUL_DB_USER"`
	LegacyPassword string `envconfig:"PLATEFUL_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLATEFUL_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLATEFUL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLATEFUL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLATEFUL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLATEFUL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLATEFUL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either PLATEFUL_DB_DSN or host/user/name must be set")
	}
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   d.LegacyName,
	}
	q := dsn.Query()
	q.Set("sslmode", d.LegacySSLMode)
	dsn.RawQuery = q.Encode()
	d.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PLATEFUL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PLATEFUL_REDIS_ADDR"`
	Password     string        `envconfig:"PLATEFUL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLATEFUL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLATEFUL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PLATEFUL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PLATEFUL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLATEFUL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PLATEFUL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PLATEFUL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PLATEFUL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PLATEFUL_JWT_EXPIRATION_MINUTES" default:"60"`
}

type BankGatewayConfig struct {
	BaseURL     string        `envconfig:"PLATEFUL_BANK_GATEWAY_BASE_URL" required:"true"`
	APIKey      string        `envconfig:"PLATEFUL_BANK_GATEWAY_API_KEY" required:"true"`
	AccountName string        `envconfig:"PLATEFUL_BANK_GATEWAY_ACCOUNT_NAME" default:"PLATEFUL"`
	Timeout     time.Duration `envconfig:"PLATEFUL_BANK_GATEWAY_TIMEOUT" default:"10s"`
}

type SweeperConfig struct {
	Interval       time.Duration `envconfig:"PLATEFUL_SWEEPER_INTERVAL" default:"1h"`
	CartTTL        time.Duration `envconfig:"PLATEFUL_SWEEPER_CART_TTL" default:"24h"`
	CartPurgeAfter time.Duration `envconfig:"PLATEFUL_SWEEPER_CART_PURGE_AFTER" default:"720h"`
	PaymentTTL     time.Duration `envconfig:"PLATEFUL_SWEEPER_PAYMENT_TTL" default:"24h"`
	LockTTL        time.Duration `envconfig:"PLATEFUL_SWEEPER_LOCK_TTL" default:"2h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLATEFUL_FEATURE_AUTO_MIGRATE" default:"false"`
}
