// Package session owns the running session of the viewer: its name, its
// saved and fresh flags, and the registry its services are bound in.
//
// # Lifecycle
//
// A Manager starts Fresh: the registry holds only default bindings and no
// user session exists. New and Load replace the registry wholesale:
//
//  1. cleanup: unsubscribe the change tracker, close every provider, close
//     the log writer
//  2. build the replacement registry (defaults, or the records of a file)
//  3. subscribe the change tracker to the mutable services
//  4. wire the session logger, the window frame and the providers
//
// Cleanup always completes before the replacement registry is populated, so
// no provider goroutine outlives the registry it was created from.
//
// # Files
//
// Save writes the session envelope followed by every persistable binding
// (see package codec) through a temp file and a rename. Load decodes the
// whole file before touching the running session; an unreadable file, a
// malformed record, or a record of an unknown kind leaves the current session
// exactly as it was.
//
// # Flags
//
// IsSaved is false after New and Load until the next Save, and drops back to
// false on any change notification from a watched service. IsDirty tracks
// only those notifications: Save and Load clear it. IsFresh is true only
// while the registry holds untouched defaults.
//
// A Manager is owned by one goroutine (the UI update loop or a CLI command).
package session
