package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "task_audit_logs", cfg.RabbitMQ.AuditQueue)
	assert.False(t, cfg.RabbitMQEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
debug: true
server:
  http_addr: ":9000"
  grpc_addr: ":9090"
database:
  driver: SQLite
  sqlite_path: /tmp/tarefas.db
rabbitmq:
  host: rabbit
  audit_queue: from_file
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("AUDIT_QUEUE", "from_env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, ":7000", cfg.HTTPAddr, "env wins over file")
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/tarefas.db", cfg.Database.SQLitePath)
	assert.True(t, cfg.RabbitMQEnabled())
	assert.Equal(t, "from_env", cfg.RabbitMQ.AuditQueue)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestLoadBadDebugFlag(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("LOG_DEBUG", "maybe")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestURLs(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "p@ss")
	t.Setenv("DB_NAME", "todo")
	t.Setenv("RABBITMQ_HOST", "mq")
	t.Setenv("RABBITMQ_PASSWORD", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgresql://app:p%40ss@db:6543/todo?sslmode=disable", cfg.PostgresURL())
	assert.Equal(t, "amqp://guest:s3cret@mq:5672/", cfg.RabbitMQURL())
	assert.ElementsMatch(t, []string{"p@ss", "s3cret"}, cfg.Secrets())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.HTTPAddr = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RabbitMQ.Host = "mq"
	cfg.RabbitMQ.AuditQueue = ""
	assert.Error(t, cfg.Validate())
}
