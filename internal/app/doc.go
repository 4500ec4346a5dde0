// Package app is the composition root of lookout.
//
// Run wires the pieces together and blocks until the UI exits:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read ~/.config/lookout/config.toml
//	       ├─────> newLogger()          Diagnostics to the log file
//	       ├─────> prefs.Load()         Theme and display defaults
//	       ├─────> NewSessions()        session.Manager writing to the archive
//	       ├─────> Manager.Load/New()   Optional session or setup file from the CLI
//	       ├─────> StartPoller()        Archive size for the status line
//	       └─────> ui.NewProgram().Run  TUI (blocks)
//
// Diagnostics never go to the terminal: the UI owns it. They are written to
// the configured log file with charmbracelet/log in text, JSON or logfmt.
//
// The poller reads the archive through its own connection. SQLite runs in
// WAL mode, so the count never blocks the session's writer. Failed polls back
// off exponentially up to 30 seconds and are logged on the first failure and
// every tenth one after it.
package app
