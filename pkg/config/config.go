package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by the service.
const EnvPrefix = "debugly"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "DEBUGLY_DB_DSN"
	EnvDBHost = "DEBUGLY_DB_HOST"
	EnvDBUser = "DEBUGLY_DB_USER"
	EnvDBName = "DEBUGLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Razorpay      RazorpayConfig
	Nebius        NebiusConfig
	Cron          CronConfig
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
	Env          string `envconfig:"DEBUGLY_APP_ENV" required:"true"`
	Port         string `envconfig:"DEBUGLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DEBUGLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DEBUGLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DEBUGLY_DB_DSN"`
	Driver string `envconfig:"DEBUGLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DEBUGLY_DB_HOST"`
	LegacyPort     int    `envconfig:"DEBUGLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEBUGLY_DB_USER"`
	LegacyPassword string `envconfig:"DEBUGLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEBUGLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEBUGLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEBUGLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEBUGLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEBUGLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEBUGLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEBUGLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DEBUGLY_REDIS_ADDR"`
	Password     string        `envconfig:"DEBUGLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEBUGLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEBUGLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEBUGLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEBUGLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEBUGLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEBUGLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DEBUGLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DEBUGLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"DEBUGLY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"DEBUGLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DEBUGLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DEBUGLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DEBUGLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DEBUGLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DEBUGLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DEBUGLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"DEBUGLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DEBUGLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"DEBUGLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"DEBUGLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"DEBUGLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEBUGLY_AUTO_MIGRATE" default:"false"`
}

type RazorpayConfig struct {
	KeyID     string        `envconfig:"DEBUGLY_RAZORPAY_KEY_ID"`
	KeySecret string        `envconfig:"DEBUGLY_RAZORPAY_KEY_SECRET"`
	BaseURL   string        `envconfig:"DEBUGLY_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout   time.Duration `envconfig:"DEBUGLY_RAZORPAY_TIMEOUT" default:"10s"`

	ProPlanID     string `envconfig:"DEBUGLY_RAZORPAY_PRO_PLAN_ID"`
	ProPlusPlanID string `envconfig:"DEBUGLY_RAZORPAY_PRO_PLUS_PLAN_ID"`
}

// Configured reports whether gateway credentials are present.
func (r RazorpayConfig) Configured() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type NebiusConfig struct {
	APIKey  string        `envconfig:"DEBUGLY_NEBIUS_API_KEY"`
	BaseURL string        `envconfig:"DEBUGLY_NEBIUS_BASE_URL" default:"https://api.studio.nebius.com/v1"`
	Model   string        `envconfig:"DEBUGLY_NEBIUS_MODEL" default:"Qwen/Qwen2.5-Coder-32B-Instruct"`
	Timeout time.Duration `envconfig:"DEBUGLY_NEBIUS_TIMEOUT" default:"60s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"DEBUGLY_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"DEBUGLY_CRON_LOCK_TTL" default:"25h"`
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
