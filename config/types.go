// Package config provides configuration management for hashmine runs
package config

import (
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the complete hashmine configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Mine input configuration
	Mine MineConfig `yaml:"mine" json:"mine"`

	// Actor counts and pacing
	Actors ActorsConfig `yaml:"actors" json:"actors"`

	// Shutdown configuration
	Shutdown ShutdownConfig `yaml:"shutdown" json:"shutdown"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name
	Name string `yaml:"name" json:"name"`

	// Application version
	Version string `yaml:"version" json:"version"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level, reloadable
	Level LogLevel `yaml:"level" json:"level"`

	// Log format (json, text)
	Format string `yaml:"format" json:"format"`

	// Output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`
}

// MineConfig describes the mine to traverse
type MineConfig struct {
	// Input is the cave info path; the loader appends _data.txt,
	// _answer.txt and _graph.txt
	Input string `yaml:"input" json:"input"`

	// Hashes is the number of hash rounds a worker applies to a room name
	Hashes int `yaml:"hashes" json:"hashes"`
}

// ActorsConfig contains actor system configuration
type ActorsConfig struct {
	// Number of coordinators
	Coordinators int `yaml:"coordinators" json:"coordinators"`

	// Number of workers
	Workers int `yaml:"workers" json:"workers"`

	// Upper bound of the random pause between two coordinator polls, reloadable
	MaxBackoff Duration `yaml:"max_backoff" json:"max_backoff"`

	// How long an idle worker waits before polling again
	IdleWait Duration `yaml:"idle_wait" json:"idle_wait"`
}

// ShutdownConfig contains shutdown settings
type ShutdownConfig struct {
	// Time allowed for services to stop
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "hashmine",
			Version:     "1.0.0",
			Environment: EnvDevelopment,
		},
		Log: LogConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
			Output: "stderr",
		},
		Mine: MineConfig{
			Hashes: 1,
		},
		Actors: ActorsConfig{
			Coordinators: 1,
			Workers:      1,
			MaxBackoff:   Duration(100 * time.Millisecond),
			IdleWait:     Duration(10 * time.Millisecond),
		},
		Shutdown: ShutdownConfig{
			Timeout: Duration(10 * time.Second),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate app config
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	// Validate log config
	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}
	if c.Log.Format != LogFormatText && c.Log.Format != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	// Validate run config
	if c.Mine.Hashes <= 0 {
		return ErrInvalidHashes
	}
	if c.Actors.Coordinators <= 0 {
		return ErrInvalidCoordinators
	}
	if c.Actors.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Actors.MaxBackoff < 0 || c.Actors.IdleWait <= 0 {
		return ErrInvalidPacing
	}

	return nil
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
