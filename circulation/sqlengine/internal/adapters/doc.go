// Package adapters provides database adapter implementations for the circulation engine.
//
// This package implements the adapter pattern to support multiple database
// libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent
// functionality through a common DBAdapter interface, allowing the engine to
// work seamlessly with any supported connection type.
//
// Unlike a single-statement store, every circulation operation is a
// check-then-act sequence, so the adapters hand out transaction scopes
// (DBTx) rather than executing statements directly. Serialization and
// locking failures are recognized by IsSerializationFailure so the engine
// can surface them as retryable conflicts.
package adapters
