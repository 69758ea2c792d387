package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName      = errors.New("invalid application name")
	ErrInvalidEnvironment  = errors.New("invalid environment")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidHashes       = errors.New("number of hashes must be positive")
	ErrInvalidCoordinators = errors.New("number of coordinators must be positive")
	ErrInvalidWorkers      = errors.New("number of workers must be positive")
	ErrInvalidPacing       = errors.New("invalid backoff or idle wait")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound  = errors.New("configuration file not found")
	ErrUnsupportedFormat   = errors.New("unsupported configuration format")
	ErrEnvironmentVarError = errors.New("environment variable error")
)
