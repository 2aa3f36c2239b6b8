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
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Paystack     PaystackConfig
	Checkout     CheckoutConfig
	OTP          OTPConfig
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
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KASUWA_APP_ENV" required:"true"`
	Port         string `envconfig:"KASUWA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KASUWA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KASUWA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KASUWA_DB_DSN"`
	Driver string `envconfig:"KASUWA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KASUWA_DB_HOST"`
	Port     int    `envconfig:"KASUWA_DB_PORT" default:"5432"`
	User     string `envconfig:"KASUWA_DB_USER"`
	Password string `envconfig:"KASUWA_DB_PASSWORD"`
	Name     string `envconfig:"KASUWA_DB_NAME"`
	SSLMode  string `envconfig:"KASUWA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KASUWA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KASUWA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KASUWA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KASUWA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KASUWA_REDIS_URL"`
	Address      string        `envconfig:"KASUWA_REDIS_ADDR"`
	Password     string        `envconfig:"KASUWA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KASUWA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KASUWA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KASUWA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KASUWA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KASUWA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KASUWA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KASUWA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KASUWA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KASUWA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KASUWA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KASUWA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KASUWA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KASUWA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KASUWA_ARGON_KEY_LEN" default:"32"`
}

type PaystackConfig struct {
	SecretKey string        `envconfig:"KASUWA_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL   string        `envconfig:"KASUWA_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"KASUWA_PAYSTACK_TIMEOUT" default:"15s"`
}

// CheckoutConfig holds the money-moving tunables for the order engine. These
// were bare literals in earlier iterations; they are injected so tests and
// environments can vary them.
type CheckoutConfig struct {
	DeliveryCost      decimal.Decimal `envconfig:"KASUWA_CHECKOUT_DELIVERY_COST" default:"10"`
	ReferralThreshold decimal.Decimal `envconfig:"KASUWA_REFERRAL_THRESHOLD" default:"50"`
	ReferralBonus     decimal.Decimal `envconfig:"KASUWA_REFERRAL_BONUS" default:"5"`
	CallbackURL       string          `envconfig:"KASUWA_PAYMENT_CALLBACK_URL" required:"true"`
}

func (c CheckoutConfig) validate() error {
	if c.DeliveryCost.IsNegative() {
		return fmt.Errorf("delivery cost cannot be negative")
	}
	if c.ReferralBonus.IsNegative() {
		return fmt.Errorf("referral bonus cannot be negative")
	}
	return nil
}

type OTPConfig struct {
	TTL         time.Duration `envconfig:"KASUWA_OTP_TTL" default:"10m"`
	Length      int           `envconfig:"KASUWA_OTP_LENGTH" default:"6"`
	MaxAttempts int           `envconfig:"KASUWA_OTP_MAX_ATTEMPTS" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KASUWA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
