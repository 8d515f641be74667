package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Inventory     InventoryConfig
	SMTP          SMTPConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"SPOOLTRACK_APP_ENV" required:"true"`
	Port         string `envconfig:"SPOOLTRACK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SPOOLTRACK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPOOLTRACK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SPOOLTRACK_DB_DSN"`
	Driver string `envconfig:"SPOOLTRACK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SPOOLTRACK_DB_HOST"`
	LegacyPort     int    `envconfig:"SPOOLTRACK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SPOOLTRACK_DB_USER"`
	LegacyPassword string `envconfig:"SPOOLTRACK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SPOOLTRACK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SPOOLTRACK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SPOOLTRACK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPOOLTRACK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPOOLTRACK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPOOLTRACK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// TxTimeout bounds every ledger transaction so a stuck lock surfaces as a
	// retryable dependency error instead of an indefinite hang.
	TxTimeout time.Duration `envconfig:"SPOOLTRACK_DB_TX_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPOOLTRACK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SPOOLTRACK_REDIS_ADDR"`
	Password     string        `envconfig:"SPOOLTRACK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPOOLTRACK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPOOLTRACK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPOOLTRACK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPOOLTRACK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPOOLTRACK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPOOLTRACK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SPOOLTRACK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SPOOLTRACK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SPOOLTRACK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SPOOLTRACK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SPOOLTRACK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SPOOLTRACK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SPOOLTRACK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SPOOLTRACK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SPOOLTRACK_ARGON_KEY_LEN" default:"32"`
}

// InventoryConfig carries the tuning knobs for the consumption ledger.
type InventoryConfig struct {
	// LowStockThresholdGrams is the remaining weight at or below which a
	// low-stock alert fires. Defaults to 200g.
	LowStockThresholdGrams float64 `envconfig:"SPOOLTRACK_LOW_STOCK_THRESHOLD_GRAMS" default:"200"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SPOOLTRACK_SMTP_HOST"`
	Port     int    `envconfig:"SPOOLTRACK_SMTP_PORT" default:"587"`
	Username string `envconfig:"SPOOLTRACK_SMTP_USER"`
	Password string `envconfig:"SPOOLTRACK_SMTP_PASS"`
	From     string `envconfig:"SPOOLTRACK_SMTP_FROM"`
	AlertTo  string `envconfig:"SPOOLTRACK_ALERT_EMAIL"`
}

// Configured reports whether enough SMTP settings are present to send mail.
func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Username != "" && s.Password != ""
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"SPOOLTRACK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit    int           `envconfig:"SPOOLTRACK_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"SPOOLTRACK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"SPOOLTRACK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentityLimit int           `envconfig:"SPOOLTRACK_AUTH_RATE_LIMIT_REGISTER_IDENTITY_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"SPOOLTRACK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SPOOLTRACK_AUTO_MIGRATE" default:"false"`
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
