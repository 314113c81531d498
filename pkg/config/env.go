package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "RENDASUA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "RENDASUA_DB_DSN"
	EnvDBHost = "RENDASUA_DB_HOST"
	EnvDBUser = "RENDASUA_DB_USER"
	EnvDBName = "RENDASUA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
