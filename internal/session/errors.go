package session

import "errors"

// ErrIO wraps failures reading or writing a session file.
var ErrIO = errors.New("session: file i/o")

// ErrClosed is returned by operations on a closed Manager.
var ErrClosed = errors.New("session: manager closed")
