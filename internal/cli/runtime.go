package cli

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"    // postgres driver for database/sql paths
	_ "modernc.org/sqlite"   // embedded sqlite driver

	"github.com/niravrohra/library-circulation/circulation/sqlengine"
	"github.com/niravrohra/library-circulation/internal/config"
	"github.com/niravrohra/library-circulation/internal/logging"
)

// runtime bundles everything a command needs: parsed config, logger, an
// open database handle, and the engine built over it.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sqlx.DB
	engine sqlengine.Engine
}

// newRuntime loads the config, opens the configured database, and builds
// the engine. Callers close the runtime when done.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Logging)

	driver, dialect := driverAndDialect(cfg.Database.Driver)

	db, err := sqlx.Open(driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	if dialect == sqlengine.DialectSQLite {
		// The embedded driver serializes writes; a single connection
		// avoids busy errors on concurrent statements.
		db.SetMaxOpenConns(1)
	}

	engine, err := buildEngine(db, dialect, logger, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		engine: engine,
	}, nil
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("failed to close database", "error", err.Error())
	}
}

func driverAndDialect(configured string) (driver string, dialect sqlengine.Dialect) {
	if configured == "postgres" {
		return "postgres", sqlengine.DialectPostgres
	}

	return "sqlite", sqlengine.DialectSQLite
}

func buildEngine(db *sqlx.DB, dialect sqlengine.Dialect, logger *slog.Logger, cfg config.Config) (sqlengine.Engine, error) {
	rate, err := cfg.FineRate()
	if err != nil {
		return sqlengine.Engine{}, err
	}

	return sqlengine.NewFromSQLX(db,
		sqlengine.WithDialect(dialect),
		sqlengine.WithLogger(logger),
		sqlengine.WithLoanPeriod(cfg.Policy.LoanPeriodDays),
		sqlengine.WithLoanLimit(cfg.Policy.LoanLimit),
		sqlengine.WithDailyFineRate(rate),
	)
}
