package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Wallet       WalletConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"SHOPORA_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPORA_DB_DSN"`
	Driver string `envconfig:"SHOPORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPORA_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPORA_DB_USER"`
	LegacyPassword string `envconfig:"SHOPORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPORA_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPORA_REDIS_WRITE_TIMEOUT" default:"5s"`

	// DiscountCodeTTL bounds how stale a cached discount policy may be.
	// Zero disables the lookup cache.
	DiscountCodeTTL time.Duration `envconfig:"SHOPORA_REDIS_DISCOUNT_CODE_TTL" default:"30s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPORA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CartConfig struct {
	Currency       string `envconfig:"SHOPORA_CART_CURRENCY" default:"USD"`
	MaxQuantity    int    `envconfig:"SHOPORA_CART_MAX_QUANTITY" default:"999"`
	AnonymousToken string `envconfig:"SHOPORA_CART_ANONYMOUS_TOKEN_HEADER" default:"X-Cart-Token"`
}

type WalletConfig struct {
	Currency string `envconfig:"SHOPORA_WALLET_CURRENCY" default:"USD"`
	PageSize int    `envconfig:"SHOPORA_WALLET_PAGE_SIZE" default:"25"`
}

type RateLimitConfig struct {
	DiscountWindow  time.Duration `envconfig:"SHOPORA_RATE_LIMIT_DISCOUNT_WINDOW" default:"1m"`
	DiscountLimit   int           `envconfig:"SHOPORA_RATE_LIMIT_DISCOUNT_CODE_LIMIT" default:"10"`
	DiscountIPLimit int           `envconfig:"SHOPORA_RATE_LIMIT_DISCOUNT_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPORA_FF_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPORA_FF_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
