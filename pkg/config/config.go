package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Stripe   StripeConfig
	GCS      GCSConfig
	Shipping ShippingConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	Cron     CronConfig
	Webhook  WebhookConfig
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
	Env          string `envconfig:"VERDELEAF_APP_ENV" required:"true"`
	Port         string `envconfig:"VERDELEAF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VERDELEAF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VERDELEAF_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VERDELEAF_DB_DSN"`
	Driver string `envconfig:"VERDELEAF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VERDELEAF_DB_HOST"`
	LegacyPort     int    `envconfig:"VERDELEAF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VERDELEAF_DB_USER"`
	LegacyPassword string `envconfig:"VERDELEAF_DB_PASSWORD"`
	LegacyName     string `envconfig:"VERDELEAF_DB_NAME"`
	LegacySSLMode  string `envconfig:"VERDELEAF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VERDELEAF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VERDELEAF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VERDELEAF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VERDELEAF_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"VERDELEAF_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VERDELEAF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VERDELEAF_REDIS_ADDR"`
	Password     string        `envconfig:"VERDELEAF_REDIS_PASSWORD"`
	DB           int           `envconfig:"VERDELEAF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VERDELEAF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VERDELEAF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VERDELEAF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VERDELEAF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VERDELEAF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VERDELEAF_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VERDELEAF_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VERDELEAF_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"VERDELEAF_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the admin session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VERDELEAF_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VERDELEAF_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VERDELEAF_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VERDELEAF_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VERDELEAF_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey string `envconfig:"VERDELEAF_STRIPE_API_KEY"`
	Secret string `envconfig:"VERDELEAF_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"VERDELEAF_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCSConfig struct {
	BucketName      string `envconfig:"VERDELEAF_GCS_BUCKET_NAME"`
	CredentialsJSON string `envconfig:"VERDELEAF_GCS_CREDENTIALS_JSON"`
	PublicBaseURL   string `envconfig:"VERDELEAF_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type ShippingConfig struct {
	RelayPoint48hCents int `envconfig:"VERDELEAF_SHIPPING_POINT_RELAIS_48H_CENTS" default:"455"`
	Home48hCents       int `envconfig:"VERDELEAF_SHIPPING_DOMICILE_48H_CENTS" default:"690"`
	RelayPoint24hCents int `envconfig:"VERDELEAF_SHIPPING_POINT_RELAIS_24H_CENTS" default:"990"`
	FreeThresholdCents int `envconfig:"VERDELEAF_SHIPPING_FREE_THRESHOLD_CENTS" default:"8000"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"VERDELEAF_CART_TTL" default:"720h"`
}

type CheckoutConfig struct {
	Currency   string        `envconfig:"VERDELEAF_CHECKOUT_CURRENCY" default:"eur"`
	SessionTTL time.Duration `envconfig:"VERDELEAF_CHECKOUT_SESSION_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VERDELEAF_CRON_INTERVAL" default:"1h"`
}

type WebhookConfig struct {
	EventTTL time.Duration `envconfig:"VERDELEAF_WEBHOOK_EVENT_TTL" default:"720h"`
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
