package config

const (
	fmtErrEmptyConfig       = "config %s cannot be empty"
	fmtErrEmptyConfigOption = "config field '%s' cannot be empty"
	fmtErrPositiveOption    = "config field '%s' must be greater than zero"
	fmtErrInvalidOption     = "config field '%s' has invalid value %q"
)

const (
	DriverMemory   = "memory"
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const envPrefix = "UPTIME_"
