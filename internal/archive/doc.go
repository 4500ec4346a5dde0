// Package archive keeps a durable SQLite copy of every entry the session
// loggers receive. It is the session's log writer: loggers stay bounded in
// memory while the archive grows.
package archive
