package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/niravrohra/library-circulation/circulation/sqlengine"
	"github.com/niravrohra/library-circulation/internal/config"
	"github.com/niravrohra/library-circulation/internal/logging"
	"github.com/niravrohra/library-circulation/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the circulation HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)

	engine, cleanup, err := serveEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sessions := server.NewSessionStore(cfg.Auth)
	handlers := server.NewAPIHandlers(logger, engine, sessions)
	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, handlers, sessions))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// serveEngine builds the engine for the server process: a pgx pool for
// postgres, the embedded sqlite driver otherwise.
func serveEngine(ctx context.Context, cfg config.Config, logger sqlengine.Logger) (sqlengine.Engine, func(), error) {

	rate, err := cfg.FineRate()
	if err != nil {
		return sqlengine.Engine{}, nil, err
	}

	options := []sqlengine.Option{
		sqlengine.WithLogger(logger),
		sqlengine.WithLoanPeriod(cfg.Policy.LoanPeriodDays),
		sqlengine.WithLoanLimit(cfg.Policy.LoanLimit),
		sqlengine.WithDailyFineRate(rate),
	}

	if cfg.Database.Driver == "postgres" {
		poolCfg, parseErr := pgxpool.ParseConfig(cfg.Database.DSN)
		if parseErr != nil {
			return sqlengine.Engine{}, nil, parseErr
		}
		poolCfg.MaxConns = int32(cfg.Database.MaxConns)

		pool, poolErr := pgxpool.NewWithConfig(ctx, poolCfg)
		if poolErr != nil {
			return sqlengine.Engine{}, nil, poolErr
		}

		engine, engineErr := sqlengine.NewFromPGXPool(pool, options...)
		if engineErr != nil {
			pool.Close()
			return sqlengine.Engine{}, nil, engineErr
		}

		return engine, pool.Close, nil
	}

	rt, err := newRuntime()
	if err != nil {
		return sqlengine.Engine{}, nil, err
	}

	return rt.engine, rt.close, nil
}
