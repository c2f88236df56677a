package config

// EnvPrefix scopes every environment variable this service reads.
const EnvPrefix = "dessy"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "DESSY_APP_ENV"
	EnvPort       = "DESSY_APP_PORT"
	EnvDBDSN      = "DESSY_DB_DSN"
	EnvDBHost     = "DESSY_DB_HOST"
	EnvDBUser     = "DESSY_DB_USER"
	EnvDBName     = "DESSY_DB_NAME"
	EnvRedisURL   = "DESSY_REDIS_URL"
	EnvJWTSecret  = "DESSY_JWT_SECRET"
	EnvJWTIssuer  = "DESSY_JWT_ISSUER"
	EnvJWTExpMins = "DESSY_JWT_EXPIRATION_MINUTES"

	EnvRefreshTokenTTLMinutes = "DESSY_REFRESH_TOKEN_TTL_MINUTES"

	EnvRazorpayKeyID  = "DESSY_RAZORPAY_KEY_ID"
	EnvRazorpaySecret = "DESSY_RAZORPAY_KEY_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
