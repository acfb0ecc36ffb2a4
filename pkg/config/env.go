package config

const (
	EnvPrefix = "SHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "SHOP_APP_ENV"
	EnvPort       = "SHOP_APP_PORT"
	EnvDBDSN      = "SHOP_DB_DSN"
	EnvDBHost     = "SHOP_DB_HOST"
	EnvDBUser     = "SHOP_DB_USER"
	EnvDBName     = "SHOP_DB_NAME"
	EnvUseSQLite  = "SHOP_USE_SQLITE"
	EnvRedisURL   = "SHOP_REDIS_URL"
	EnvJWTSecret  = "SHOP_JWT_SECRET"
	EnvJWTIssuer  = "SHOP_JWT_ISSUER"
	EnvJWTExpMins = "SHOP_JWT_EXPIRATION_MINUTES"
	EnvRates      = "SHOP_CURRENCY_RATES"
	EnvMinAmount  = "SHOP_CHECKOUT_MINIMUM_AMOUNT"
	EnvStripeKey  = "SHOP_STRIPE_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
