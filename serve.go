package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iqbalbaharum/constant-product-pool/internal/adapter"
	"github.com/iqbalbaharum/constant-product-pool/internal/bank"
	"github.com/iqbalbaharum/constant-product-pool/internal/feed"
	"github.com/iqbalbaharum/constant-product-pool/internal/handler"
	"github.com/iqbalbaharum/constant-product-pool/internal/service"
	"github.com/iqbalbaharum/constant-product-pool/internal/storage"
	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

var errJournalDisabled = errors.New("trade journal is not configured")

// disabledJournal serves the trade routes when no MySQL DSN is configured.
type disabledJournal struct{}

func (disabledJournal) Search(context.Context, types.MySQLFilter) ([]types.Trade, error) {
	return nil, errJournalDisabled
}

func (disabledJournal) DeleteAll(context.Context) error {
	return errJournalDisabled
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Beneficiary.IsZero() {
		return fmt.Errorf("beneficiary is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := feed.NewHub(logger.Named("feed"))
	defer hub.Close()

	opts := []service.Option{service.WithFeed(hub)}
	var trades handler.TradeStore = disabledJournal{}

	if cfg.RedisAddr != "" {
		if err := adapter.InitRedisClients(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
			return fmt.Errorf("failed to initialize Redis clients: %w", err)
		}
		defer adapter.CloseRedisClients()

		client, err := adapter.GetRedisClient(cfg.RedisDB)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithCache(storage.NewPoolStateStorage(client)))
	}

	if cfg.MySqlDsn != "" {
		if err := adapter.InitMySQLClient(ctx, cfg.MySqlDsn, cfg.MySqlDbName, cfg.Migrations); err != nil {
			return fmt.Errorf("failed to initialize SQL client: %w", err)
		}

		client, err := adapter.GetMySQLClient()
		if err != nil {
			return err
		}
		defer client.Close()

		journal := storage.NewTradeStorage(client)
		opts = append(opts, service.WithJournal(journal))
		trades = journal
	}

	svc := service.New(bank.New(logger.Named("bank")), cfg.ProgramID, cfg.Beneficiary, logger, opts...)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.CreateRoutes(svc, trades, hub, logger.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("server running",
		zap.Int("port", cfg.Port),
		zap.Stringer("program", cfg.ProgramID),
		zap.Stringer("beneficiary", cfg.Beneficiary),
		zap.Bool("cache", cfg.RedisAddr != ""),
		zap.Bool("journal", cfg.MySqlDsn != ""),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}
