// Package ui is the Bubble Tea terminal interface of lookout.
//
// The root Model polls the session's logger on every tick and passes the
// retained entries through the session's display services: the classifying
// pipeline first, then the filtering and extracting pipelines with their
// quick-search counterparts, and finally the highlighters. The result is
// shown in the window frame's current view, either a scrolling table or the
// full detail of the selected entry.
//
// Session actions (new, open, save, add provider, export) are collected in
// modals and applied to the session.Manager on the UI goroutine, so the
// manager never sees concurrent calls.
package ui
