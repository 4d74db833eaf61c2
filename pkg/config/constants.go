package config

const (
	// EnvPrefix is the envconfig prefix for every SHOPORA_* variable.
	EnvPrefix = "SHOPORA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOPORA_DB_DSN"
	EnvDBHost = "SHOPORA_DB_HOST"
	EnvDBUser = "SHOPORA_DB_USER"
	EnvDBName = "SHOPORA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
