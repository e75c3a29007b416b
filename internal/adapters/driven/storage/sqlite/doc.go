// Package sqlite provides the SQLite-backed metadata store. A single
// database file holds documents, chunks, vector mappings, tags and groups,
// with foreign keys enforcing the delete cascade that keeps the relational
// side consistent in one transaction.
package sqlite
