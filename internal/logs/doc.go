// Package logs holds the named loggers of a session.
//
// A Manager creates loggers by name (names are trimmed and NFC-normalized and
// must be unique). A Logger keeps a bounded in-memory view of its entries in a
// state.Store and forwards every entry to a Writer, which the application
// points at the SQLite archive. Exporter dumps a logger to a text file.
//
// Loggers are written from provider goroutines and read by the UI, so every
// exported method is safe for concurrent use.
package logs
