package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	AuthRateLimit AuthRateLimitConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Currency      CurrencyConfig
	Checkout      CheckoutConfig
	Promo         PromoConfig
	Stripe        StripeConfig
	Email         EmailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOP_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SHOP_CORS_ORIGINS" default:"http://localhost:3000"`
}

// AuthRateLimitConfig throttles login and registration per client IP and per email.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOP_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"SHOP_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"SHOP_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"SHOP_REGISTER_RATE_WINDOW" default:"10m"`
	RegisterIPLimit    int           `envconfig:"SHOP_REGISTER_RATE_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"SHOP_REGISTER_RATE_EMAIL_LIMIT" default:"3"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"SHOP_DB_DSN"`
	SQLitePath string `envconfig:"SHOP_SQLITE_PATH" default:"shop.db"`

	LegacyHost     string `envconfig:"SHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOP_DB_USER"`
	LegacyPassword string `envconfig:"SHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"SHOP_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOP_REDIS_URL"`
	Address      string        `envconfig:"SHOP_REDIS_ADDR" default:"127.0.0.1:6379"`
	Password     string        `envconfig:"SHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOP_REDIS_DB" default:"1"`
	PoolSize     int           `envconfig:"SHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"SHOP_REDIS_NAMESPACE" default:"shop"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOP_JWT_ISSUER" default:"shop-backend"`
	ExpirationMinutes int    `envconfig:"SHOP_JWT_EXPIRATION_MINUTES" default:"60"`
	Audience          string `envconfig:"SHOP_JWT_AUDIENCE" default:"shop-api"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOP_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOP_AUTO_MIGRATE" default:"false"`
}

// CurrencyConfig holds the static conversion table. Rates are multipliers
// relative to USD, e.g. "USD:1,EUR:0.9,RUB:95".
type CurrencyConfig struct {
	Default string            `envconfig:"SHOP_DEFAULT_CURRENCY" default:"USD"`
	Rates   map[string]string `envconfig:"SHOP_CURRENCY_RATES" default:"USD:1,EUR:0.9,RUB:95"`
}

type CheckoutConfig struct {
	MinimumAmount decimal.Decimal `envconfig:"SHOP_CHECKOUT_MINIMUM_AMOUNT" default:"0.50"`
	ClearPromo    bool            `envconfig:"SHOP_CHECKOUT_CLEAR_PROMO" default:"false"`
}

type PromoConfig struct {
	EnforceExpiry bool `envconfig:"SHOP_PROMO_ENFORCE_EXPIRY" default:"false"`
}

type StripeConfig struct {
	APIKey    string `envconfig:"SHOP_STRIPE_API_KEY"`
	PublicKey string `envconfig:"SHOP_STRIPE_PUBLIC_KEY"`
	Env       string `envconfig:"SHOP_STRIPE_ENV" default:"test"`
}

// Enabled reports whether a payment gateway credential is configured.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type EmailConfig struct {
	UseSMTP     bool   `envconfig:"SHOP_EMAIL_USE_SMTP" default:"false"`
	Host        string `envconfig:"SHOP_EMAIL_HOST" default:"smtp.gmail.com"`
	Port        int    `envconfig:"SHOP_EMAIL_PORT" default:"587"`
	Username    string `envconfig:"SHOP_EMAIL_HOST_USER"`
	Password    string `envconfig:"SHOP_EMAIL_HOST_PASSWORD"`
	UseTLS      bool   `envconfig:"SHOP_EMAIL_USE_TLS" default:"true"`
	DefaultFrom string `envconfig:"SHOP_DEFAULT_FROM_EMAIL" default:"noreply@example.com"`
	FailOnError bool   `envconfig:"SHOP_NOTIFY_FAIL_ON_ERROR" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
