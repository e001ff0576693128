package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env and no file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, DefaultActivationURL, cfg.Remote.ActivationURL)
				assert.Equal(t, DefaultSubmissionURL, cfg.Remote.SubmissionURL)
				assert.Equal(t, DefaultHTTPTimeout, cfg.Remote.Timeout)
				assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
				assert.True(t, cfg.Security.RateLimit.Enabled)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
remote:
  activation_url: http://license.local/activate
storage:
  driver: sqlite
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "http://license.local/activate", cfg.Remote.ActivationURL)
				assert.Equal(t, DefaultSubmissionURL, cfg.Remote.SubmissionURL)
				assert.Equal(t, StorageDriverSQLite, cfg.Storage.Driver)
			},
		},
		{
			name: "env overrides file",
			file: `
server:
  port: 9090
`,
			env: map[string]string{
				"TASKGATE_SERVER_PORT":    "7070",
				"TASKGATE_REMOTE_TIMEOUT": "5s",
				"TASKGATE_LOGGING_LEVEL":  "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"TASKGATE_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid activation url",
			env:     map[string]string{"TASKGATE_REMOTE_ACTIVATION_URL": "not a url"},
			wantErr: true,
		},
		{
			name: "memory storage driver",
			env:  map[string]string{"TASKGATE_STORAGE_DRIVER": "MEMORY"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
			},
		},
		{
			name:    "unknown storage driver",
			env:     map[string]string{"TASKGATE_STORAGE_DRIVER": "redis"},
			wantErr: true,
		},
		{
			name: "unknown log output falls back to console",
			env:  map[string]string{"TASKGATE_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	paths, err := GetPaths(t.TempDir())
	require.NoError(t, err)

	cfg := Default()
	assert.Equal(t, filepath.Join(paths.DataDir, DefaultStoreFile), cfg.StorePath(paths))

	cfg.Storage.Driver = StorageDriverSQLite
	assert.Equal(t, filepath.Join(paths.DataDir, DefaultSQLiteFile), cfg.StorePath(paths))

	cfg.Storage.Path = "custom/store.db"
	assert.Equal(t, filepath.Join(paths.BaseDir, "custom", "store.db"), cfg.StorePath(paths))

	abs := filepath.Join(t.TempDir(), "abs.json")
	cfg.Storage.Path = abs
	assert.Equal(t, abs, cfg.StorePath(paths))
}

func TestEnsureDirectories(t *testing.T) {
	paths, err := GetPaths(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.DataDir)
	assert.DirExists(t, paths.LogsDir)
}

func TestAddress(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:8080", cfg.Address())
}
