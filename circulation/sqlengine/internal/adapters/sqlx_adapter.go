package adapters

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for sqlx.DB.
type SQLXAdapter struct {
	db        *sqlx.DB
	isolation sql.IsolationLevel
}

// NewSQLXAdapter creates a new SQLX adapter.
func NewSQLXAdapter(db *sqlx.DB, isolation sql.IsolationLevel) *SQLXAdapter {
	return &SQLXAdapter{db: db, isolation: isolation}
}

// BeginTx starts a transaction at the configured isolation level.
func (s *SQLXAdapter) BeginTx(ctx context.Context) (DBTx, error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: s.isolation})
	if err != nil {
		return nil, err
	}

	return &stdTx{tx: tx.Tx}, nil
}
