package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
app:
  env: production
  port: 9000
jwt:
  algorithm: HS256
  hs_secret: s3cret
storage:
  driver: memory
ws:
  ping_interval_seconds: 5
  idle_timeout_seconds: 60
kafka:
  brokers: ["k1:9092", "k2:9092"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
	assert.Equal(t, time.Minute, cfg.IdleTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	// defaults
	assert.Equal(t, 256, cfg.WS.SendBufferSize)
	assert.Equal(t, "ping", cfg.WS.Heartbeat)
	assert.Equal(t, 100, cfg.Email.PreviewLength)
	assert.Equal(t, 10*time.Second, cfg.WriteDeadline)
}

func TestLoadSeedUsersForMemoryStore(t *testing.T) {
	path := writeConfig(t, `
jwt:
  hs_secret: s3cret
storage:
  driver: memory
  seed_users:
    - id: alice
      full_name: Alice Smith
      email: alice@example.com
    - id: ghost
      full_name: Ghost
      inactive: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	users := cfg.Storage.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].ID)
	assert.Equal(t, "Alice Smith", users[0].FullName)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.True(t, users[0].IsActive)
	assert.False(t, users[1].IsActive)

	_, err = Load(writeConfig(t, `
jwt:
  hs_secret: s3cret
storage:
  driver: memory
  seed_users:
    - full_name: Nobody
`))
	assert.ErrorContains(t, err, "seed_users[0].id")
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_HS_SECRET", "from-env")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_PORT", "7001")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.HSSecret)
	assert.Equal(t, 7001, cfg.App.Port)
	assert.Equal(t, time.Duration(0), cfg.IdleTimeout)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"hs256 without secret": "jwt: {algorithm: HS256}\nstorage: {driver: memory}\n",
		"rs256 without key":    "jwt: {algorithm: RS256}\nstorage: {driver: memory}\n",
		"unknown driver":       "jwt: {hs_secret: x}\nstorage: {driver: sqlite}\n",
		"bad port":             "app: {port: 70000}\njwt: {hs_secret: x}\n",
		"email without key":    "jwt: {hs_secret: x}\nstorage: {driver: memory}\nemail: {enabled: true}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
