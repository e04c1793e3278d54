package main

import (
	"budget-bee-server/src/api"
	"budget-bee-server/src/auth"
	"budget-bee-server/src/bank"
	"budget-bee-server/src/config"
	"budget-bee-server/src/db"
	"budget-bee-server/src/events"
	"budget-bee-server/src/ledger"
	"budget-bee-server/src/scheduler"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const sweepTimeout = 15 * time.Minute

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the income sweeper",
		RunE:  runServe,
	}
	cmd.Flags().String("port", "", "HTTP port (env PORT)")
	v.BindPFlag("PORT", cmd.Flags().Lookup("port"))
	return cmd
}

// newLedger builds the ledger service with the configured publisher. The
// returned close func releases the publisher.
func newLedger(pool *pgxpool.Pool, cfg *config.Config) (*ledger.Service, func(), error) {
	var publisher events.Publisher = events.NoopPublisher{}
	closePublisher := func() {}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("connect AMQP publisher: %w", err)
		}
		publisher = p
		closePublisher = func() {
			if err := p.Close(); err != nil {
				log.Printf("ERROR: Failed to close AMQP publisher: %v", err)
			}
		}
		log.Printf("INFO: Publishing ledger events to exchange %s", cfg.AMQPExchange)
	}

	svc := ledger.NewService(
		ledger.NewPgStore(pool),
		ledger.WithPublisher(publisher),
		ledger.WithInvalidator(db.UserCacheInvalidator{}),
		ledger.WithCatchUp(ledger.CatchUpPolicy(cfg.IncomeCatchUp)),
		ledger.WithSweepConcurrency(cfg.IncomeSweepConcurrency),
	)
	return svc, closePublisher, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB connection failed: %w", err)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		log.Println("INFO: Migrations applied")
	}

	if err := db.InitCache(); err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	svc, closePublisher, err := newLedger(pool, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	var bankClient *bank.Client
	if cfg.BankEnabled() {
		bankClient, err = bank.NewClient(cfg.PlaidClientID, cfg.PlaidSecret, cfg.PlaidEnv)
		if err != nil {
			return err
		}
		log.Printf("INFO: Bank linking enabled (%s)", cfg.PlaidEnv)
	}

	if cfg.IncomeSweepSchedule != "" {
		sweeper, err := scheduler.NewSweeper(svc, cfg.IncomeSweepSchedule, sweepTimeout)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			sweeper.Stop(stopCtx)
		}()
	}

	router := api.NewRouter(api.Deps{
		Pool:   pool,
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Ledger: svc,
		Bank:   bankClient,
		Config: cfg,
	})
	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		log.Println("INFO: API server running on port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("INFO: Server stopped")
	return nil
}
