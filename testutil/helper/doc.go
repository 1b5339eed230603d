// Package helper holds shared test fixtures: a mutable clock, engine setup
// over an in-memory database, Given-style seeding helpers, and assertion
// helpers for stored rows.
package helper
