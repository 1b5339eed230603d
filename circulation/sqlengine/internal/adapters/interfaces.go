package adapters

import "context"

// DBAdapter defines the interface for opening transaction scopes against
// the underlying database connection.
type DBAdapter interface {
	// BeginTx starts a transaction at the strongest isolation level the
	// driver supports, serializable where available.
	BeginTx(ctx context.Context) (DBTx, error)
}

// DBTx defines the interface for statements executed inside one transaction.
// All statements are parameterized; the query string never embeds values.
type DBTx interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
