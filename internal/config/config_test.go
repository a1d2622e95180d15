package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("AUTHZ_ENFORCE_MANAGE", "true")
	t.Setenv("REVIEW_CACHE_TTL", "30s")
	t.Setenv("MEDIA_URL_MODE", "presigned")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.True(t, cfg.Auth.EnforceManage)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "presigned", cfg.Media.URLMode)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"AUTHZ_ENFORCE_MANAGE", "MEDIA_MAX_IMAGE_BYTES", "REDIS_ADDR", "MEDIA_URL_MODE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.False(t, cfg.Auth.EnforceManage)
	assert.Equal(t, int64(5<<20), cfg.Media.MaxImageBytes)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "public", cfg.Media.URLMode)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_FLOAT_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, "2.5")
	assert.Equal(t, 2.5, getEnvFloat(key, 1))

	os.Setenv(key, "nope")
	assert.Equal(t, 1.0, getEnvFloat(key, 1))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration(key, time.Minute))

	os.Setenv(key, "120")
	assert.Equal(t, 2*time.Minute, getEnvDuration(key, time.Minute))

	os.Setenv(key, "soon")
	assert.Equal(t, time.Minute, getEnvDuration(key, time.Minute))

	os.Unsetenv(key)
	assert.Equal(t, time.Minute, getEnvDuration(key, time.Minute))
}

func TestAppConfig_ReviewCacheTTL(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		ttl    time.Duration
		expiry time.Duration
		want   time.Duration
	}{
		{"public mode keeps ttl", "public", 2 * time.Hour, 10 * time.Minute, 2 * time.Hour},
		{"presigned caps at half the expiry", "presigned", 2 * time.Hour, time.Hour, 30 * time.Minute},
		{"presigned keeps a shorter ttl", "presigned", 5 * time.Minute, time.Hour, 5 * time.Minute},
		{"presigned without expiry keeps ttl", "presigned", 5 * time.Minute, 0, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{
				Media: MediaConfig{URLMode: tt.mode, PresignExpiry: tt.expiry},
				Redis: RedisConfig{TTL: tt.ttl},
			}
			assert.Equal(t, tt.want, cfg.ReviewCacheTTL())
		})
	}
}

func TestLoad_DatabaseStartup(t *testing.T) {
	t.Setenv("DB_STATEMENT_TIMEOUT", "15s")
	t.Setenv("DB_CONNECT_ATTEMPTS", "")
	t.Setenv("DB_CONNECT_BACKOFF", "2")

	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.Database.ConnectBackoff)
}
