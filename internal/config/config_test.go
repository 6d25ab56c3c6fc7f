package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, BackendNone, cfg.Sessions.Backend)
}

func TestParse_File(t *testing.T) {
	data := []byte(`
driver: mysql
dsn: "user:pass@tcp(localhost:3306)/cms"
catalog: tables.cue
log:
  level: debug
  format: json
sessions:
  backend: redis
  redis_addr: localhost:6379
  redis_prefix: "cms:session:"
  dial_timeout: 2s
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Driver)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/cms", cfg.DSN)
	assert.Equal(t, "tables.cue", cfg.Catalog)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, BackendRedis, cfg.Sessions.Backend)
	assert.Equal(t, "cms:session:", cfg.Sessions.RedisPrefix)
	assert.Equal(t, 2*time.Second, cfg.Sessions.DialTimeout)
	// Unset fields keep their defaults.
	assert.Equal(t, "sessions", cfg.Sessions.Table)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("ROWGATE_DSN", "/tmp/override.db")
	t.Setenv("ROWGATE_LOG_LEVEL", "warn")

	cfg, err := Parse([]byte("dsn: from-file.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "driver: [", "failed to parse YAML"},
		{"unknown driver", "driver: oracle", "oracle"},
		{"empty dsn", `dsn: ""`, "dsn is required"},
		{"bad level", "log: {level: loud}", "log.level"},
		{"bad format", "log: {format: xml}", "log.format"},
		{"bad backend", "sessions: {backend: memcached}", "sessions.backend"},
		{"redis without addr", "sessions: {backend: redis}", "redis_addr"},
		{"sql without table", "sessions: {backend: sql, table: ''}", "sessions.table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rowgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: postgres\ndsn: postgres://localhost/cms\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "rowgate.db", cfg.DSN)
}
