// Package config supplies database connections for tests: an in-memory
// SQLite database for the fast default path and Postgres builders for
// running the suite against a real server.
package config
