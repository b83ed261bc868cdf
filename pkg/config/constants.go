package config

// EnvPrefix is left empty because every field spells out its full env var name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "VERDELEAF_DB_DSN"
	EnvDBHost = "VERDELEAF_DB_HOST"
	EnvDBUser = "VERDELEAF_DB_USER"
	EnvDBName = "VERDELEAF_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
