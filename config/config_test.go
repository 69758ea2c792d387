package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		val, ok := vars[key]
		return val, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "hashmine", config.App.Name)
	assert.Equal(t, LogLevelInfo, config.Log.Level)
	assert.Equal(t, 1, config.Mine.Hashes)
	assert.Equal(t, 100*time.Millisecond, config.Actors.MaxBackoff.Std())
	assert.Equal(t, EnvDevelopment, config.App.Environment)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		err    error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty app name", mutate: func(c *Config) { c.App.Name = "" }, err: ErrInvalidAppName},
		{name: "bad environment", mutate: func(c *Config) { c.App.Environment = "moon" }, err: ErrInvalidEnvironment},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, err: ErrInvalidLogLevel},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, err: ErrInvalidLogFormat},
		{name: "no hashes", mutate: func(c *Config) { c.Mine.Hashes = 0 }, err: ErrInvalidHashes},
		{name: "no coordinators", mutate: func(c *Config) { c.Actors.Coordinators = 0 }, err: ErrInvalidCoordinators},
		{name: "negative workers", mutate: func(c *Config) { c.Actors.Workers = -2 }, err: ErrInvalidWorkers},
		{name: "negative backoff", mutate: func(c *Config) { c.Actors.MaxBackoff = Duration(-time.Second) }, err: ErrInvalidPacing},
		{name: "zero idle wait", mutate: func(c *Config) { c.Actors.IdleWait = 0 }, err: ErrInvalidPacing},
		{name: "zero backoff", mutate: func(c *Config) { c.Actors.MaxBackoff = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoaderYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hashmine.yaml", `
app:
  name: cave-run
log:
  level: debug
  format: json
mine:
  input: caves/small
  hashes: 3
actors:
  coordinators: 2
  workers: 8
  max_backoff: 20ms
`)

	config, err := NewLoader().SetLookupEnv(noEnv).LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "cave-run", config.App.Name)
	assert.Equal(t, LogLevelDebug, config.Log.Level)
	assert.Equal(t, LogFormatJSON, config.Log.Format)
	assert.Equal(t, "caves/small", config.Mine.Input)
	assert.Equal(t, 3, config.Mine.Hashes)
	assert.Equal(t, 2, config.Actors.Coordinators)
	assert.Equal(t, 8, config.Actors.Workers)
	assert.Equal(t, 20*time.Millisecond, config.Actors.MaxBackoff.Std())

	// Missing fields come from the defaults.
	assert.Equal(t, "1.0.0", config.App.Version)
	assert.Equal(t, "stderr", config.Log.Output)
	assert.Equal(t, 10*time.Millisecond, config.Actors.IdleWait.Std())
	assert.Equal(t, 10*time.Second, config.Shutdown.Timeout.Std())
}

func TestLoaderJSON(t *testing.T) {
	config, err := NewLoader().SetLookupEnv(noEnv).LoadFromReader(
		strings.NewReader(`{"app": {"name": "json-run"}, "actors": {"workers": 4}}`),
		FormatJSON,
	)
	require.NoError(t, err)

	assert.Equal(t, "json-run", config.App.Name)
	assert.Equal(t, 4, config.Actors.Workers)
	assert.Equal(t, 1, config.Actors.Coordinators)
}

func TestLoaderJSONDurations(t *testing.T) {
	config, err := NewLoader().SetLookupEnv(noEnv).LoadFromReader(
		strings.NewReader(`{"actors": {"max_backoff": "50ms", "idle_wait": 2000000}, "shutdown": {"timeout": "3s"}}`),
		FormatJSON,
	)
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, config.Actors.MaxBackoff.Std())
	assert.Equal(t, 2*time.Millisecond, config.Actors.IdleWait.Std(), "integers are nanoseconds")
	assert.Equal(t, 3*time.Second, config.Shutdown.Timeout.Std())

	_, err = NewLoader().SetLookupEnv(noEnv).LoadFromReader(
		strings.NewReader(`{"actors": {"max_backoff": "soon"}}`),
		FormatJSON,
	)
	assert.Error(t, err)
}

func TestLoaderHonorsExplicitZero(t *testing.T) {
	loader := NewLoader().SetLookupEnv(noEnv)

	config, err := loader.LoadFromReader(strings.NewReader("actors:\n  max_backoff: 0\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), config.Actors.MaxBackoff.Std())
	assert.Equal(t, 10*time.Millisecond, config.Actors.IdleWait.Std())

	config, err = loader.LoadFromReader(strings.NewReader(`{"actors": {"max_backoff": "0s"}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), config.Actors.MaxBackoff.Std())

	_, err = loader.LoadFromReader(strings.NewReader("actors:\n  workers: 0\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidWorkers, "an explicit zero is not replaced by the default")
}

func TestDurationRoundTripsAsText(t *testing.T) {
	data, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.JSONEq(t, `"1.5s"`, string(data))

	out, err := yaml.Marshal(struct {
		Wait Duration `yaml:"wait"`
	}{Duration(250 * time.Millisecond)})
	require.NoError(t, err)
	assert.Equal(t, "wait: 250ms\n", string(out))
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader().SetLookupEnv(noEnv)

	_, err := loader.LoadFromFile(writeFile(t, dir, "bad.yaml", "actors: [unclosed"))
	assert.Error(t, err)

	_, err = loader.LoadFromFile(writeFile(t, dir, "hashmine.toml", "x = 1"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = loader.LoadFromFile(writeFile(t, dir, "zero.yaml", "actors:\n  workers: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = loader.LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvironmentOverrides(t *testing.T) {
	loader := NewLoader().SetLookupEnv(envMap(map[string]string{
		"HASHMINE_APP_NAME":            "env-run",
		"HASHMINE_LOG_LEVEL":           "WARN",
		"HASHMINE_MINE_INPUT":          "caves/big",
		"HASHMINE_MINE_HASHES":         "5",
		"HASHMINE_ACTORS_WORKERS":      "16",
		"HASHMINE_ACTORS_MAX_BACKOFF":  "1ms",
		"HASHMINE_SHUTDOWN_TIMEOUT":    "2s",
		"HASHMINE_ACTORS_COORDINATORS": "",
	}))

	config, err := loader.LoadFromReader(strings.NewReader("actors:\n  workers: 2\n"), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "env-run", config.App.Name)
	assert.Equal(t, LogLevelWarn, config.Log.Level)
	assert.Equal(t, "caves/big", config.Mine.Input)
	assert.Equal(t, 5, config.Mine.Hashes)
	assert.Equal(t, 16, config.Actors.Workers, "environment overrides the file")
	assert.Equal(t, 1, config.Actors.Coordinators, "empty variables are ignored")
	assert.Equal(t, time.Millisecond, config.Actors.MaxBackoff.Std())
	assert.Equal(t, 2*time.Second, config.Shutdown.Timeout.Std())
}

func TestEnvironmentOverrideErrors(t *testing.T) {
	tests := map[string]string{
		"HASHMINE_ACTORS_WORKERS":   "many",
		"HASHMINE_ACTORS_IDLE_WAIT": "soon",
	}

	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			loader := NewLoader().SetSearchPaths(nil).SetLookupEnv(envMap(map[string]string{key: val}))
			_, err := loader.Load("")
			assert.ErrorIs(t, err, ErrEnvironmentVarError)
		})
	}
}

func TestEnvPrefix(t *testing.T) {
	loader := NewLoader().
		SetSearchPaths(nil).
		SetEnvPrefix("CAVE").
		SetLookupEnv(envMap(map[string]string{"CAVE_ACTORS_WORKERS": "3", "HASHMINE_ACTORS_WORKERS": "9"}))

	config, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, config.Actors.Workers)
}

func TestLoadSearchesPaths(t *testing.T) {
	empty := t.TempDir()
	dir := t.TempDir()
	writeFile(t, dir, "hashmine.yml", "app:\n  name: found\n")

	config, err := NewLoader().
		SetLookupEnv(noEnv).
		SetSearchPaths([]string{empty, dir}).
		Load("")
	require.NoError(t, err)
	assert.Equal(t, "found", config.App.Name)

	config, err = NewLoader().
		SetLookupEnv(noEnv).
		SetSearchPaths([]string{empty}).
		Load("")
	require.NoError(t, err)
	assert.Equal(t, "hashmine", config.App.Name, "defaults apply when no file is found")
}

func TestDefaultsAreNotShared(t *testing.T) {
	defaults := DefaultConfig()
	loader := NewLoader().SetLookupEnv(noEnv).SetDefaultConfig(defaults)

	config, err := loader.LoadFromReader(strings.NewReader("actors:\n  workers: 7\n"), FormatYAML)
	require.NoError(t, err)
	config.Actors.Coordinators = 99

	assert.Equal(t, 7, config.Actors.Workers)
	assert.Equal(t, 1, defaults.Actors.Workers)
	assert.Equal(t, 1, defaults.Actors.Coordinators)
}

func TestWatcherReload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hashmine.yaml", "log:\n  level: info\n")

	watcher, err := NewWatcher(path, NewLoader().SetLookupEnv(noEnv), nil)
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, watcher.GetConfig().Log.Level)

	changes := make(chan [2]*Config, 1)
	watcher.OnConfigChange(func(oldConfig, newConfig *Config) {
		changes <- [2]*Config{oldConfig, newConfig}
	})
	watcher.OnConfigChange(func(oldConfig, newConfig *Config) {
		panic("callbacks must not take the watcher down")
	})

	writeFile(t, filepath.Dir(path), "hashmine.yaml", "log:\n  level: debug\n")
	require.NoError(t, watcher.Reload())

	change := <-changes
	assert.Equal(t, LogLevelInfo, change[0].Log.Level)
	assert.Equal(t, LogLevelDebug, change[1].Log.Level)
	assert.Equal(t, LogLevelDebug, watcher.GetConfig().Log.Level)

	// A broken file keeps the previous configuration.
	writeFile(t, filepath.Dir(path), "hashmine.yaml", "log:\n  level: loud\n")
	assert.ErrorIs(t, watcher.Reload(), ErrInvalidLogLevel)
	assert.Equal(t, LogLevelDebug, watcher.GetConfig().Log.Level)
}

func TestWatcherPicksUpFileChanges(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hashmine.yaml", "actors:\n  max_backoff: 50ms\n")

	watcher, err := NewWatcher(path, NewLoader().SetLookupEnv(noEnv), nil)
	require.NoError(t, err)
	watcher.SetDebounce(10 * time.Millisecond)

	reloaded := make(chan time.Duration, 8)
	watcher.OnConfigChange(func(_, newConfig *Config) {
		reloaded <- newConfig.Actors.MaxBackoff.Std()
	})

	require.NoError(t, watcher.Start())
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte("actors:\n  max_backoff: 5ms\n"), 0o644))

	// The write may surface as a truncate and a write; wait for the final content.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case d := <-reloaded:
			if d == 5*time.Millisecond {
				return
			}
		case <-timeout:
			t.Fatal("config change was not picked up")
		}
	}
}

func TestNewWatcherRejectsUnknownFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hashmine.ini", "")
	_, err := NewWatcher(path, NewLoader(), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
