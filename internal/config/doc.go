// Package config loads lookout's application configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/lookout/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/lookout/config.toml
//   - Session directory: ~/.local/share/lookout/sessions
//   - Diagnostic log: ~/.local/share/lookout/lookout.log
//   - Entry archive: ~/.local/share/lookout/archive.db
//   - Preferences: ~/.config/lookout/prefs.toml
//   - Log level / format: info / text
//   - Entries kept in memory per logger: 5000
//
// # TOML Format
//
//	session_dir  = "~/sessions"
//	log_file     = "/tmp/lookout.log"
//	log_level    = "debug"       # debug, info, warn, error
//	log_format   = "json"        # text, json, logfmt
//	archive_path = "off"         # or a path; "off" disables the archive
//	prefs_path   = "~/.lookout-prefs.toml"
//	buffer_size  = 20000
//
// Every field is optional. Tilde expansion is performed on paths and relative
// paths are made absolute.
//
// # Error Handling
//
// Load returns errors for path expansion failures, unreadable files (except
// os.ErrNotExist, which triggers defaults), TOML parse errors, an unknown
// log_format, and a negative buffer_size. The diagnostic log itself is opened
// by package app, which parses log_level.
package config
