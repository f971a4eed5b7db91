package main

import (
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iqbalbaharum/constant-product-pool/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "pool",
		Short:        "Constant product pool program and its simulated ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("program-id", config.PROGRAM_ID.String(), "pool program id")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool HTTP API over an in-memory ledger",
		RunE:  runServe,
	}

	serveCmd.Flags().Int("port", config.DefaultPort, "HTTP port")
	serveCmd.Flags().String("beneficiary", "", "fee beneficiary address")
	serveCmd.Flags().String("redis-addr", "", "redis address for pool snapshots")
	serveCmd.Flags().String("redis-password", "", "redis password")
	serveCmd.Flags().Int("redis-db", config.DefaultRedisDB, "redis database index")
	serveCmd.Flags().String("mysql-dsn", "", "MySQL DSN for the trade journal")
	serveCmd.Flags().String("mysql-db", config.DefaultMySqlDb, "MySQL database name")
	serveCmd.Flags().String("migrations", config.DefaultMigration, "migrations directory")

	root.AddCommand(serveCmd)

	deriveCmd := &cobra.Command{
		Use:   "derive <authority>",
		Short: "Print the derived pool addresses of an authority",
		Args:  cobra.ExactArgs(1),
		RunE:  runDerive,
	}

	deriveCmd.Flags().String("customer", "", "also print this customer's token account")

	root.AddCommand(deriveCmd)

	encodeCmd := &cobra.Command{
		Use:       "encode <initialize|buy|sell>",
		Short:     "Encode pool instruction data as base58",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"initialize", "buy", "sell"},
		RunE:      runEncode,
	}

	encodeCmd.Flags().String("amount", "0", "buy quote amount, sell base amount or initial quote amount")
	encodeCmd.Flags().String("supply", "0", "total supply in whole tokens (initialize)")
	encodeCmd.Flags().Uint8("decimals", 18, "token decimals (initialize)")
	encodeCmd.Flags().String("authority", "", "pool authority, builds a signed transaction when set with --payer")
	encodeCmd.Flags().String("beneficiary", "", "fee beneficiary (buy, sell)")
	encodeCmd.Flags().String("payer", "", "base58 private key of the signer")
	encodeCmd.Flags().String("blockhash", "", "recent blockhash")
	encodeCmd.Flags().Uint32("compute-units", 0, "compute unit limit")
	encodeCmd.Flags().Uint64("compute-price", 0, "compute unit price in micro lamports")
	encodeCmd.Flags().String("rpc-url", "", "cluster RPC url, used for the blockhash and --send")
	encodeCmd.Flags().Bool("send", false, "submit the signed transaction")

	root.AddCommand(encodeCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode <base58 data>",
		Short: "Decode pool instruction data",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecode,
	}

	root.AddCommand(decodeCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect <authority>",
		Short: "Read a pool record from a cluster",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	inspectCmd.Flags().String("rpc-url", "https://api.devnet.solana.com", "cluster RPC url")

	root.AddCommand(inspectCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream committed trades from a running server",
		RunE:  runWatch,
	}

	watchCmd.Flags().String("url", "ws://localhost:5000/ws", "trade feed url")

	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
