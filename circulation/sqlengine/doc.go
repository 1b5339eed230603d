// Package sqlengine implements the circulation engine against a relational database.
//
// The engine covers the three cooperating components of the system: the
// borrower registry, the circulation ledger, and the fine engine. Every
// public operation runs inside one transaction at serializable isolation
// (where the driver supports it), so the check-then-act sequences in
// checkout, checkin, payment, and borrower registration cannot race.
// Serialization conflicts roll back cleanly and surface as
// circulation.ErrTxConflict, which circulation.RetryWithBackoff retries.
//
// Multiple database libraries are supported through internal adapters
// (pgx pool, sql.DB, sqlx.DB), and two SQL dialects (Postgres, SQLite).
// All statements are built with goqu in prepared mode - values travel as
// parameters, never inside query text.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	engine, _ := sqlengine.NewFromPGXPool(pool, sqlengine.WithLogger(logger))
//
//	cardID, err := engine.CreateBorrower(ctx, circulation.NewBorrower{
//		SSN:     "111-22-3333",
//		Name:    "Jane Doe",
//		Address: "1 Main St",
//	})
//
//	loanID, err := engine.Checkout(ctx, "0000000001", cardID)
package sqlengine
