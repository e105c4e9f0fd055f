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

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/adapters/token"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/adapters/venue"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/api"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/config"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/events/kafka"
	eventsmemory "github.com/sheikh-saqib/escrow-swap-ledger/internal/events/memory"
	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/metrics"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/storage/postgres"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "escrowd",
		Short:        "Custodial escrow ledger with relayer-triggered swaps",
		SilenceUsage: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	config.RegisterFlags(serve.Flags())
	root.AddCommand(serve)
	return root
}

func newLogger(cfg config.Config) log.Logger {
	opts := []log.Option{log.LevelOption(cfg.LogLevel)}
	if cfg.LogJSON {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(os.Stderr, opts...)
}

// sandboxAssets creates the in-memory assets and a constant-product venue seeded
// with the configured reserves.
func sandboxAssets(ctx context.Context, cfg config.Config, logger log.Logger) (*token.Token, *token.Token, *venue.Pool, error) {
	assetA := token.New("TKA")
	assetB := token.New("TKB")

	pool, err := venue.NewPool(uuid.New(), assetA, assetB, cfg.VenueFee, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := assetA.Mint(ctx, pool.Spender(), cfg.VenueReserveA); err != nil {
		return nil, nil, nil, err
	}
	if err := assetB.Mint(ctx, pool.Spender(), cfg.VenueReserveB); err != nil {
		return nil, nil, nil, err
	}
	return assetA, assetB, pool, nil
}

func run(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg)

	if !cfg.Sandbox {
		return errors.New("no asset or exchange adapters are built in; run with --sandbox or embed the ledger package with your own handles")
	}
	assetA, assetB, pool, err := sandboxAssets(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}

	var store interfaces.LedgerStore
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer db.Close()
		pg := postgres.NewPostgresLedgerStore(db)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
		store = pg
	} else {
		store = memory.NewMemoryLedgerStore()
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, logger)
		defer kp.Close()
		publisher = kp
	} else {
		publisher = eventsmemory.NewRecorder()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	l, err := ledger.NewLedger(ctx, cfg.LedgerID, pool, assetA, assetB,
		ledger.WithStore(store),
		ledger.WithPublisher(publisher, cfg.KafkaTopicPrefix),
		ledger.WithLogger(logger),
		ledger.WithMetrics(metrics.New(registry)),
	)
	if err != nil {
		return err
	}

	if _, err := l.Restore(ctx); err != nil {
		if !errors.Is(err, ledger.ErrInvariantViolation) {
			return fmt.Errorf("restore: %w", err)
		}
		// Sandbox assets start empty on every run, so a persisted journal cannot be
		// covered by them.
		logger.Warn("journal not replayed: it is not covered by the fresh sandbox assets", "error", err)
	}

	server := api.NewServer(l, store, logger,
		api.WithGatherer(registry),
		api.WithSandbox(&api.Sandbox{AssetA: assetA, AssetB: assetB}),
	)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "ledger", l.Self())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
