package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE_BACKEND", "DATABASE_URL", "MIN_PASSWORD_STRENGTH", "MASTER_SEARCH_DEBOUNCE", "IDEMPOTENCY_TTL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "memory", cfg.StorageBackend)
	require.Equal(t, 80, cfg.MinPasswordStrength)
	require.Equal(t, 5, cfg.MasterSearchLimit)
	require.Equal(t, 300*time.Millisecond, cfg.MasterSearchDebounce)
	require.Equal(t, 10, cfg.MaxSecondaries)
	require.Equal(t, "/metrics", cfg.MetricsPath)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL is required")
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("MIN_PASSWORD_STRENGTH", "101")

	_, err := Load()
	require.ErrorContains(t, err, "STORAGE_BACKEND must be memory or postgres")
	require.ErrorContains(t, err, "MIN_PASSWORD_STRENGTH must be between 0 and 100")
}

func TestLoadDotEnv_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MECA_DOTENV_TEST=loaded\n"), 0o600))
	t.Setenv("MECA_DOTENV_TEST", "")
	os.Unsetenv("MECA_DOTENV_TEST")

	n, err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "loaded", os.Getenv("MECA_DOTENV_TEST"))
}
