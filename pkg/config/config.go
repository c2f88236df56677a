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
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Delivery      DeliveryConfig
	Razorpay      RazorpayConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"DESSY_APP_ENV" required:"true"`
	Port         string `envconfig:"DESSY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DESSY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DESSY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	DSN    string `envconfig:"DESSY_DB_DSN"`
	Driver string `envconfig:"DESSY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DESSY_DB_HOST"`
	LegacyPort     int    `envconfig:"DESSY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DESSY_DB_USER"`
	LegacyPassword string `envconfig:"DESSY_DB_PASSWORD"`
	LegacyName     string `envconfig:"DESSY_DB_NAME"`
	LegacySSLMode  string `envconfig:"DESSY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DESSY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DESSY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DESSY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DESSY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DESSY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DESSY_REDIS_ADDR"`
	Password     string        `envconfig:"DESSY_REDIS_PASSWORD"`
	DB           int           `envconfig:"DESSY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DESSY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DESSY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DESSY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DESSY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DESSY_REDIS_WRITE_TIMEOUT" default:"5s"`

	CartTTL time.Duration `envconfig:"DESSY_REDIS_CART_TTL" default:"720h"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DESSY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DESSY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"DESSY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"DESSY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DESSY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DESSY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DESSY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DESSY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DESSY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DESSY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"DESSY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DESSY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"DESSY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"DESSY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"DESSY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DESSY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DESSY_AUTO_MIGRATE" default:"false"`
}

// DeliveryConfig carries the storefront delivery pricing policy. The values
// must stay in lockstep with what the storefront displays; the server is the
// final authority at order-creation time.
type DeliveryConfig struct {
	FreeThreshold string `envconfig:"DESSY_DELIVERY_FREE_THRESHOLD" default:"500"`
	StandardFee   string `envconfig:"DESSY_DELIVERY_STANDARD_FEE" default:"50"`
}

type RazorpayConfig struct {
	KeyID       string        `envconfig:"DESSY_RAZORPAY_KEY_ID"`
	KeySecret   string        `envconfig:"DESSY_RAZORPAY_KEY_SECRET"`
	BaseURL     string        `envconfig:"DESSY_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout     time.Duration `envconfig:"DESSY_RAZORPAY_TIMEOUT" default:"10s"`
	MaxRetries  int           `envconfig:"DESSY_RAZORPAY_MAX_RETRIES" default:"3"`
	RetryPause  time.Duration `envconfig:"DESSY_RAZORPAY_RETRY_PAUSE" default:"250ms"`
	WebhookSkew time.Duration `envconfig:"DESSY_RAZORPAY_WEBHOOK_SKEW" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DESSY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
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
