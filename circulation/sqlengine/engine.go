package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

const (
	logMsgBeginTxFailed     = "failed to begin transaction"
	logMsgCommitFailed      = "failed to commit transaction"
	logMsgDBQueryFailed     = "database query execution failed"
	logMsgDBExecFailed      = "database statement execution failed"
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgScanRowFailed     = "failed to scan database row"
	logMsgBuildQueryFailed  = "failed to build query"
	logMsgOperation         = "circulation operation: "
	logAttrError            = "error"
	logAttrCardID           = "card_id"
	logAttrLoanID           = "loan_id"
	logAttrISBN             = "isbn"
	logAttrRowsAffected     = "rows_affected"
	logAttrFineCount        = "fine_count"
	tableBorrowers          = "borrowers"
	tableBooks              = "books"
	tableAuthors            = "authors"
	tableBookAuthors        = "book_authors"
	tableLoans              = "loans"
	tableFines              = "fines"
	colCardID               = "card_id"
	colSSN                  = "ssn"
	colName                 = "name"
	colAddress              = "address"
	colPhone                = "phone"
	colISBN                 = "isbn"
	colTitle                = "title"
	colAuthorID             = "author_id"
	colLoanID               = "loan_id"
	colDateOut              = "date_out"
	colDueDate              = "due_date"
	colDateIn               = "date_in"
	colAmount               = "amount"
	colPaid                 = "paid"
)

// Dialect selects the SQL dialect queries are built for.
type Dialect string

// Supported dialects. The names match the goqu dialect registry.
const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Logger interface for SQL failure reporting and operational messages.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Engine executes the circulation operations - borrower registry,
// circulation ledger, and fine engine - against one relational store.
type Engine struct {
	db         adapters.DBAdapter
	dialect    Dialect
	logger     Logger
	clock      func() time.Time
	loanPeriod int
	loanLimit  int
	dailyRate  decimal.Decimal
}

// Option defines a functional option for configuring an Engine.
type Option func(*Engine) error

// WithLogger sets the logger for the engine. log/slog's *Logger satisfies
// the interface directly.
func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithDialect sets the SQL dialect. DialectPostgres is the default.
func WithDialect(dialect Dialect) Option {
	return func(e *Engine) error {
		if dialect != DialectPostgres && dialect != DialectSQLite {
			return circulation.ErrUnknownDialect
		}

		e.dialect = dialect

		return nil
	}
}

// WithClock sets the time source used for checkout, checkin, and fine
// accrual dates. Intended for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) error {
		e.clock = clock
		return nil
	}
}

// WithLoanPeriod sets the lending period in days (default 14).
func WithLoanPeriod(days int) Option {
	return func(e *Engine) error {
		if days <= 0 {
			return errors.New("loan period must be positive")
		}

		e.loanPeriod = days

		return nil
	}
}

// WithLoanLimit sets the maximum number of open loans per borrower (default 3).
func WithLoanLimit(limit int) Option {
	return func(e *Engine) error {
		if limit <= 0 {
			return errors.New("loan limit must be positive")
		}

		e.loanLimit = limit

		return nil
	}
}

// WithDailyFineRate sets the fine accrued per day late (default 0.25).
func WithDailyFineRate(rate decimal.Decimal) Option {
	return func(e *Engine) error {
		if rate.IsNegative() {
			return errors.New("daily fine rate must not be negative")
		}

		e.dailyRate = rate

		return nil
	}
}

func newEngine(options []Option) (Engine, error) {
	e := Engine{
		dialect:    DialectPostgres,
		clock:      time.Now,
		loanPeriod: circulation.DefaultLoanPeriodDays,
		loanLimit:  circulation.DefaultLoanLimit,
		dailyRate:  circulation.DefaultDailyFineRate,
	}

	for _, option := range options {
		if err := option(&e); err != nil {
			return Engine{}, err
		}
	}

	return e, nil
}

// NewFromPGXPool creates a new Engine using a pgx Pool with optional configuration.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, circulation.ErrNilDatabaseConnection
	}

	e, err := newEngine(options)
	if err != nil {
		return Engine{}, err
	}

	e.db = adapters.NewPGXAdapter(db)

	return e, nil
}

// NewFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, circulation.ErrNilDatabaseConnection
	}

	e, err := newEngine(options)
	if err != nil {
		return Engine{}, err
	}

	e.db = adapters.NewSQLAdapter(db, e.isolationLevel())

	return e, nil
}

// NewFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, circulation.ErrNilDatabaseConnection
	}

	e, err := newEngine(options)
	if err != nil {
		return Engine{}, err
	}

	e.db = adapters.NewSQLXAdapter(db, e.isolationLevel())

	return e, nil
}

// isolationLevel returns the transaction isolation for database/sql based
// drivers. SQLite transactions are serializable by nature, so the driver
// default is used there.
func (e Engine) isolationLevel() sql.IsolationLevel {
	if e.dialect == DialectSQLite {
		return sql.LevelDefault
	}

	return sql.LevelSerializable
}

// Dialect returns the SQL dialect the engine was configured with.
func (e Engine) Dialect() Dialect {
	return e.dialect
}

// builder returns the goqu dialect builder for this engine.
func (e Engine) builder() goqu.DialectWrapper {
	return goqu.Dialect(string(e.dialect))
}

// today returns the current date at day resolution in UTC.
func (e Engine) today() time.Time {
	now := e.clock().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// withinTx runs fn inside one transaction: commit on success, rollback on
// any error. Serialization failures from the driver are mapped onto
// circulation.ErrTxConflict; other storage failures are joined with
// circulation.ErrStorage. Business errors pass through untouched.
func (e Engine) withinTx(ctx context.Context, fn func(tx adapters.DBTx) error) error {
	tx, beginErr := e.db.BeginTx(ctx)
	if beginErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgBeginTxFailed, logAttrError, beginErr.Error())
		}

		return e.asStorageError(beginErr)
	}

	if fnErr := fn(tx); fnErr != nil {
		e.rollback(ctx, tx)
		return e.mapDBError(fnErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgCommitFailed, logAttrError, commitErr.Error())
		}

		e.rollback(ctx, tx)

		return e.asStorageError(commitErr)
	}

	return nil
}

// rollback rolls the transaction back and logs failures; rollback errors
// never mask the original error.
func (e Engine) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		if e.logger != nil {
			e.logger.Warn("failed to roll back transaction", logAttrError, rollbackErr.Error())
		}
	}
}

// mapDBError leaves business errors alone and wraps raw driver errors.
func (e Engine) mapDBError(err error) error {
	if errors.Is(err, circulation.ErrValidation) ||
		errors.Is(err, circulation.ErrNotFound) ||
		errors.Is(err, circulation.ErrDuplicate) ||
		errors.Is(err, circulation.ErrPolicy) ||
		errors.Is(err, circulation.ErrConflict) ||
		errors.Is(err, circulation.ErrStorage) {
		return err
	}

	return e.asStorageError(err)
}

// asStorageError classifies a driver error as retryable conflict or
// plain storage failure.
func (e Engine) asStorageError(err error) error {
	if adapters.IsSerializationFailure(err) {
		return errors.Join(circulation.ErrTxConflict, err)
	}

	return errors.Join(circulation.ErrStorage, err)
}

// closeRows safely closes database rows and logs any errors.
func (e Engine) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if e.logger != nil {
			e.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (e Engine) logOperation(action string, args ...any) {
	if e.logger != nil {
		e.logger.Info(logMsgOperation+action, args...)
	}
}
