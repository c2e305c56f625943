package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")
}

func TestLoadProductionConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, SequenceStorePostgres, cfg.Sequence.Store)
	assert.Equal(t, 0.9, cfg.Sequence.WarnRatio)
	assert.Equal(t, 5*time.Minute, cfg.Sequence.MonitorInterval)
	assert.Equal(t, 3, cfg.Sequence.ProjectCreateRetries)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadProductionConfig_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("SEQUENCE_STORE", "sqlite")
	t.Setenv("SEQUENCE_SQLITE_PATH", "/tmp/seq.db")
	t.Setenv("SEQUENCE_WARN_RATIO", "0.75")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, SequenceStoreSQLite, cfg.Sequence.Store)
	assert.Equal(t, "/tmp/seq.db", cfg.Sequence.SQLitePath)
	assert.Equal(t, 0.75, cfg.Sequence.WarnRatio)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoadProductionConfig_CollectsProblems(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("JWT_SECRET_KEY", "short")
	t.Setenv("SEQUENCE_STORE", "etcd")
	t.Setenv("SEQUENCE_WARN_RATIO", "1.5")

	_, err := LoadProductionConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD is required")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY must be at least 32 characters long")
	assert.Contains(t, err.Error(), "SEQUENCE_STORE must be postgres or sqlite")
	assert.Contains(t, err.Error(), "SEQUENCE_WARN_RATIO")
}

func TestLoadProductionConfig_SQLiteStoreRequiresDevelopment(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SEQUENCE_STORE", "sqlite")
	t.Setenv("SEQUENCE_SQLITE_PATH", "/tmp/seq.db")

	_, err := LoadProductionConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEQUENCE_STORE=sqlite is only allowed when APP_ENV is development")

	t.Setenv("APP_ENV", "dev")
	cfg, err := LoadProductionConfig()
	require.NoError(t, err)
	assert.Equal(t, SequenceStoreSQLite, cfg.Sequence.Store)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport CIVIC_TEST_A=\"quoted value\"\nCIVIC_TEST_B='single'\nCIVIC_TEST_C=preset\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CIVIC_TEST_C", "from-env")
	t.Setenv("CIVIC_TEST_A", "")
	os.Unsetenv("CIVIC_TEST_A")
	t.Setenv("CIVIC_TEST_B", "")
	os.Unsetenv("CIVIC_TEST_B")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "quoted value", os.Getenv("CIVIC_TEST_A"))
	assert.Equal(t, "single", os.Getenv("CIVIC_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("CIVIC_TEST_C"))

	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env")))
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC", cfg.DSN())
}
