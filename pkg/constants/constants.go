package constants

const (
	AppName      = "clinicheck"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "CLINICHECK"
)

// Store drivers accepted by store.driver.
const (
	StoreDriverMemory   = "memory"
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverPostgres = "postgres"
)

// Email providers accepted by email.provider.
const (
	EmailProviderSMTP = "smtp"
	EmailProviderSES  = "ses"
)
