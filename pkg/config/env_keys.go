package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "TEMPLARIA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "TEMPLARIA_APP_ENV"
	EnvPort    = "TEMPLARIA_APP_PORT"
	EnvDBDSN   = "TEMPLARIA_DB_DSN"
	EnvDBHost  = "TEMPLARIA_DB_HOST"
	EnvDBUser  = "TEMPLARIA_DB_USER"
	EnvDBName  = "TEMPLARIA_DB_NAME"
	EnvDBPort  = "TEMPLARIA_DB_PORT"
	EnvDBPass  = "TEMPLARIA_DB_PASSWORD"
	EnvDBSSL   = "TEMPLARIA_DB_SSLMODE"
	EnvRedis   = "TEMPLARIA_REDIS_URL"
	EnvSecret  = "TEMPLARIA_JWT_SECRET"
	EnvIssuer  = "TEMPLARIA_JWT_ISSUER"
	EnvProject = "TEMPLARIA_GCP_PROJECT_ID"
	EnvBucket  = "TEMPLARIA_GCS_ASSETS_BUCKET"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
