package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return &cfg
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := defaultConfig(t)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Payment.WebhookLockTTL)
	assert.Equal(t, 8*time.Second, cfg.Payment.ProviderTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Reconciler.PendingAge)
	assert.Equal(t, 50, cfg.Reconciler.BatchSize)
}

func TestValidate_BadPort(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_LockTTLRequired(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Payment.WebhookLockTTL = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Auth.JWTSecret = "too-short"
	assert.Error(t, cfg.Validate())
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENV", "production")
	cfg := defaultConfig(t)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.signing_secret")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Database: "payflow", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=payflow sslmode=disable", cfg.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6379}
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
}
