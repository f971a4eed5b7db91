package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var PROGRAM_ID = solana.MustPublicKeyFromBase58("EjhMW84ENMdycHT2vtY8GdvvkcJrbZW6ohmvB72fLGqo")

const (
	DefaultPort      = 5000
	DefaultRedisDB   = 1
	DefaultMySqlDb   = "pool"
	DefaultMigration = "./migrations"
)

// Config holds values loaded from .env, environment variables, an optional config file
// and flags, in increasing order of precedence.
type Config struct {
	ProgramID     solana.PublicKey
	Beneficiary   solana.PublicKey
	Port          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MySqlDsn      string
	MySqlDbName   string
	Migrations    string
	LogLevel      string
}

// Load merges the .env file, POOL_ prefixed environment variables, cfgFile and flags.
// A missing .env file is not an error.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("POOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("program-id", PROGRAM_ID.String())
	v.SetDefault("port", DefaultPort)
	v.SetDefault("redis-db", DefaultRedisDB)
	v.SetDefault("mysql-db", DefaultMySqlDb)
	v.SetDefault("migrations", DefaultMigration)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	programID, err := solana.PublicKeyFromBase58(v.GetString("program-id"))
	if err != nil {
		return Config{}, fmt.Errorf("program id: %w", err)
	}

	var beneficiary solana.PublicKey
	if raw := v.GetString("beneficiary"); raw != "" {
		if beneficiary, err = solana.PublicKeyFromBase58(raw); err != nil {
			return Config{}, fmt.Errorf("beneficiary: %w", err)
		}
	}

	return Config{
		ProgramID:     programID,
		Beneficiary:   beneficiary,
		Port:          v.GetInt("port"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		MySqlDsn:      v.GetString("mysql-dsn"),
		MySqlDbName:   v.GetString("mysql-db"),
		Migrations:    v.GetString("migrations"),
		LogLevel:      v.GetString("log-level"),
	}, nil
}
