// Package importer turns raw catalog and patron CSV exports into the
// circulation schema: tolerant header matching, name and address
// normalization, author deduplication, and a batched full reload of the
// database.
package importer
