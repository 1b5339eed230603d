package sqlengine

import (
	"context"
	_ "embed"
	"strings"

	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

//go:embed schema_postgres.sql
var schemaPostgres string

//go:embed schema_sqlite.sql
var schemaSQLite string

// Drop order respects foreign keys: fines before loans, the junction
// table before authors and books, loans before borrowers and books.
var dropStatements = []string{
	"DROP TABLE IF EXISTS fines",
	"DROP TABLE IF EXISTS loans",
	"DROP TABLE IF EXISTS book_authors",
	"DROP TABLE IF EXISTS authors",
	"DROP TABLE IF EXISTS borrowers",
	"DROP TABLE IF EXISTS books",
}

// CreateSchema creates the circulation tables and indexes for the
// configured dialect if they do not exist yet.
func (e Engine) CreateSchema(ctx context.Context) error {
	return e.withinTx(ctx, func(tx adapters.DBTx) error {
		return e.execStatements(ctx, tx, e.schemaStatements())
	})
}

// DropSchema removes all circulation tables. Used by the importer before
// a full reload, and by tests.
func (e Engine) DropSchema(ctx context.Context) error {
	return e.withinTx(ctx, func(tx adapters.DBTx) error {
		return e.execStatements(ctx, tx, dropStatements)
	})
}

func (e Engine) schemaStatements() []string {
	ddl := schemaPostgres
	if e.dialect == DialectSQLite {
		ddl = schemaSQLite
	}

	// Executed one statement at a time: pgx rejects multi-statement
	// strings on its default protocol.
	var statements []string
	for _, statement := range strings.Split(ddl, ";") {
		if trimmed := strings.TrimSpace(statement); trimmed != "" {
			statements = append(statements, trimmed)
		}
	}

	return statements
}

func (e Engine) execStatements(ctx context.Context, tx adapters.DBTx, statements []string) error {
	for _, statement := range statements {
		if _, err := tx.Exec(ctx, statement); err != nil {
			if e.logger != nil {
				e.logger.Error(logMsgDBExecFailed, logAttrError, err.Error())
			}

			return err
		}
	}

	return nil
}
