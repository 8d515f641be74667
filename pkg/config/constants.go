package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry the full
	// SPOOLTRACK_ names so the prefix stays empty here.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SPOOLTRACK_DB_DSN"
	EnvDBHost = "SPOOLTRACK_DB_HOST"
	EnvDBUser = "SPOOLTRACK_DB_USER"
	EnvDBName = "SPOOLTRACK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
