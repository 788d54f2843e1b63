package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: 9000
mongo:
  database: fromfile
jwt:
  secret: filesecret
  ttl: 1h
events:
  bus: noop
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGO_DB", "fromenv")
	t.Setenv("CORS_ORIGIN", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Http.Port)
	assert.Equal(t, "fromenv", cfg.Mongo.Database)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.Uri)
	assert.Equal(t, "filesecret", cfg.Jwt.Secret)
	assert.Equal(t, time.Hour, cfg.Jwt.TTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Cors.Origins)
	assert.Equal(t, time.Hour, JwtOptions(cfg).TTL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate(), "secret required")

	cfg.Jwt.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Events.Bus = EventBusNats
	assert.Error(t, cfg.Validate())
	cfg.Events.NatsServers = []string{"nats://127.0.0.1:4222"}
	assert.NoError(t, cfg.Validate())

	cfg.Events.Bus = "rabbit"
	assert.Error(t, cfg.Validate())
}

func TestConfigEventsNoop(t *testing.T) {
	cfg := Default()
	pub, closeFn, err := ConfigEvents(cfg)
	require.NoError(t, err)
	pub.Publish("message.created", "k", map[string]string{"a": "b"})
	closeFn()
}

func TestConfigRegistryWithoutRedis(t *testing.T) {
	reg, stop := ConfigRegistry(nil)
	defer stop()
	assert.Equal(t, 0, reg.Len())
}

func TestSendLimiterDefaults(t *testing.T) {
	t.Setenv("SEND_RATE_BURST", "3")
	cfg := Default()
	applyEnv(&cfg)
	assert.Equal(t, 5.0, cfg.Limit.SendRPS)
	assert.Equal(t, 3, cfg.Limit.SendBurst)
	assert.NotNil(t, SendLimiter(cfg))
}
