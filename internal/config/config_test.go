package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 336*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "log", cfg.Notifier.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.True(t, cfg.Cache.MethodSet()["GET"])
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadNotifier_WithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("NOTIFIER_QUEUE", "welcome")

	nc, err := LoadNotifier()
	require.NoError(t, err)
	assert.Equal(t, "welcome", nc.Queue)
	assert.Equal(t, "25", nc.SMTPPort)
}

func TestValidate(t *testing.T) {
	base := Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Auth:     AuthConfig{JWTSecret: "s", BcryptCost: 10, SessionTTL: time.Hour},
		Notifier: NotifierConfig{Driver: "log"},
		Storage:  StorageConfig{Driver: "local"},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown db driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "DB_DRIVER"},
		{name: "mysql without user", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "DB_USER"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Driver = "s3" }, wantErr: "S3_BUCKET"},
		{name: "unknown notifier", mutate: func(c *Config) { c.Notifier.Driver = "sms" }, wantErr: "NOTIFIER_DRIVER"},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }, wantErr: "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRateLimitNormalize(t *testing.T) {
	rl := RateLimitConfig{Capacity: 0, RefillTokens: 0, RefillInterval: 0, TTL: time.Second}
	rl.normalize()

	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, time.Second, rl.RefillInterval)
	assert.Equal(t, 5*time.Second, rl.TTL)
}

func TestRedisAddress(t *testing.T) {
	assert.Equal(t, "localhost:6379", RedisConfig{Addr: "localhost:6379"}.Address())
	assert.Equal(t, "redis:6380", RedisConfig{Host: "redis", Port: "6380", Addr: "x:1"}.Address())
}
