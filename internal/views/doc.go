// Package views holds the view descriptors a session can show and the
// window frames that display a logger through them.
package views
