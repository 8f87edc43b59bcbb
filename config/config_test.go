package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "zh", want: "Chinese"},
		{code: "en", want: "English"},
		{code: "ja", want: "Japanese"},
		{code: "ko", want: "Korean"},
		{code: "fr", want: "French"},
		{code: "de", want: "German"},
		{code: "pt", want: "English"},
		{code: "", want: "English"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := LanguageName(tt.code); got != tt.want {
				t.Errorf("LanguageName(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsLanguageSupported(t *testing.T) {
	assert.True(t, IsLanguageSupported("ko"))
	assert.False(t, IsLanguageSupported("xx"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
log:
  level: debug
  output: stdout
storage:
  driver: redis
  key: sync:settings
redis:
  host: cache.local
  port: 6380
background:
  listen: 0.0.0.0:4000
  secret: s3cret
  token_ttl_seconds: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "cache.local", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "0.0.0.0:4000", cfg.Background.Listen)
	assert.Equal(t, 30, cfg.Background.TokenTTLSeconds)
	assert.Equal(t, 5, cfg.Mysql.MaxOpenConns)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: etcd\n"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Error(t, WriteDefault(path), "existing file must not be overwritten")
}

func TestLanguageCodes(t *testing.T) {
	assert.Equal(t, []string{"zh", "en", "ja", "ko", "fr", "de"}, LanguageCodes())
}
