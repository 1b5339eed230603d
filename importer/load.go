package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine"
)

// batchSize keeps each named insert below the parameter limits of both
// supported drivers.
const batchSize = 500

const (
	insertBookStmt     = `INSERT INTO books (isbn, title) VALUES (:isbn, :title)`
	insertAuthorStmt   = `INSERT INTO authors (author_id, name) VALUES (:author_id, :name)`
	insertLinkStmt     = `INSERT INTO book_authors (isbn, author_id) VALUES (:isbn, :author_id)`
	insertBorrowerStmt = `INSERT INTO borrowers (card_id, ssn, name, address, phone) ` +
		`VALUES (:card_id, :ssn, :name, :address, :phone)`

	// Imported borrowers keep their legacy card ids, so the identity
	// sequence has to catch up before the first fresh registration.
	syncCardSequenceStmt = `SELECT setval(pg_get_serial_sequence('borrowers', 'card_id'), ` +
		`(SELECT COALESCE(MAX(card_id), 1) FROM borrowers))`
)

// Report counts the rows written by one load.
type Report struct {
	Books       int
	Authors     int
	BookAuthors int
	Borrowers   int
}

// Loader performs a full reload of the circulation database from
// normalized rows.
type Loader struct {
	db     *sqlx.DB
	engine sqlengine.Engine
	logger sqlengine.Logger
}

// LoaderOption defines a functional option for configuring a Loader.
type LoaderOption func(*Loader) error

// WithLoaderLogger sets the logger for the loader.
func WithLoaderLogger(logger sqlengine.Logger) LoaderOption {
	return func(l *Loader) error {
		l.logger = logger
		return nil
	}
}

// NewLoader creates a Loader over the given connection. The engine must
// be built on the same database; it supplies the schema management and
// the dialect.
func NewLoader(db *sqlx.DB, engine sqlengine.Engine, options ...LoaderOption) (Loader, error) {
	if db == nil {
		return Loader{}, circulation.ErrNilDatabaseConnection
	}

	l := Loader{db: db, engine: engine}

	for _, option := range options {
		if err := option(&l); err != nil {
			return Loader{}, err
		}
	}

	return l, nil
}

// Load drops and recreates the schema, then inserts the catalog and the
// borrowers in one transaction. A failed load leaves the fresh empty
// schema in place, never a partial dataset.
func (l Loader) Load(ctx context.Context, catalog Catalog, borrowers []BorrowerRow) (Report, error) {
	if err := l.engine.DropSchema(ctx); err != nil {
		return Report{}, err
	}
	if err := l.engine.CreateSchema(ctx); err != nil {
		return Report{}, err
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return Report{}, errors.Join(circulation.ErrStorage, err)
	}

	report, loadErr := l.loadAll(ctx, tx, catalog, borrowers)
	if loadErr != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && l.logger != nil {
			l.logger.Warn("failed to roll back load transaction", "error", rollbackErr.Error())
		}

		return Report{}, errors.Join(circulation.ErrStorage, loadErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return Report{}, errors.Join(circulation.ErrStorage, commitErr)
	}

	if l.logger != nil {
		l.logger.Info("database reloaded",
			"books", report.Books,
			"authors", report.Authors,
			"book_authors", report.BookAuthors,
			"borrowers", report.Borrowers,
		)
	}

	return report, nil
}

func (l Loader) loadAll(
	ctx context.Context,
	tx *sqlx.Tx,
	catalog Catalog,
	borrowers []BorrowerRow,
) (Report, error) {

	if err := insertBatches(ctx, tx, insertBookStmt, catalog.Books); err != nil {
		return Report{}, fmt.Errorf("loading books: %w", err)
	}
	if err := insertBatches(ctx, tx, insertAuthorStmt, catalog.Authors); err != nil {
		return Report{}, fmt.Errorf("loading authors: %w", err)
	}
	if err := insertBatches(ctx, tx, insertLinkStmt, catalog.BookAuthors); err != nil {
		return Report{}, fmt.Errorf("loading book authors: %w", err)
	}
	if err := insertBatches(ctx, tx, insertBorrowerStmt, borrowers); err != nil {
		return Report{}, fmt.Errorf("loading borrowers: %w", err)
	}

	if l.engine.Dialect() == sqlengine.DialectPostgres && len(borrowers) > 0 {
		if _, err := tx.ExecContext(ctx, syncCardSequenceStmt); err != nil {
			return Report{}, fmt.Errorf("syncing card id sequence: %w", err)
		}
	}

	return Report{
		Books:       len(catalog.Books),
		Authors:     len(catalog.Authors),
		BookAuthors: len(catalog.BookAuthors),
		Borrowers:   len(borrowers),
	}, nil
}

// insertBatches writes the rows through a named statement in chunks.
func insertBatches[T any](ctx context.Context, tx *sqlx.Tx, stmt string, rows []T) error {
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		if _, err := tx.NamedExecContext(ctx, stmt, rows[start:end]); err != nil {
			return err
		}
	}

	return nil
}
