package config

const (
	// EnvPrefix is the envconfig prefix; individual fields carry explicit
	// KASUWA_ names so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "KASUWA_DB_DSN"
	EnvDBHost = "KASUWA_DB_HOST"
	EnvDBUser = "KASUWA_DB_USER"
	EnvDBName = "KASUWA_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
