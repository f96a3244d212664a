package config

// EnvPrefix is passed to envconfig; individual fields carry fully
// qualified MESA_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MESA_APP_ENV"
	EnvPort     = "MESA_APP_PORT"
	EnvRedisURL = "MESA_REDIS_URL"
	EnvDBDSN    = "MESA_DB_DSN"
	EnvDBHost   = "MESA_DB_HOST"
	EnvDBUser   = "MESA_DB_USER"
	EnvDBName   = "MESA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
