package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, PROGRAM_ID, cfg.ProgramID)
	require.True(t, cfg.Beneficiary.IsZero())
	require.Equal(t, DefaultPort, cfg.Port)
	require.Equal(t, DefaultRedisDB, cfg.RedisDB)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	beneficiary := solana.NewWallet().PublicKey()
	t.Setenv("POOL_BENEFICIARY", beneficiary.String())
	t.Setenv("POOL_PORT", "6000")
	t.Setenv("POOL_REDIS_ADDR", "localhost:6379")

	cfgFile := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("log-level: warn\nmysql-db: journal\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", DefaultPort, "")
	require.NoError(t, flags.Parse([]string{"--port=7000"}))

	cfg, err := Load(cfgFile, flags)
	require.NoError(t, err)
	require.Equal(t, beneficiary, cfg.Beneficiary)
	require.Equal(t, 7000, cfg.Port)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "journal", cfg.MySqlDbName)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POOL_MYSQL_DSN=user:pass@tcp(localhost:3306)/\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("POOL_MYSQL_DSN") })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "user:pass@tcp(localhost:3306)/", cfg.MySqlDsn)
}

func TestLoadRejectsBadKeys(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POOL_PROGRAM_ID", "not-a-key")

	_, err := Load("", nil)
	require.Error(t, err)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}
