// Package logtail reads the end of lookout's diagnostics log.
//
// Read walks the file backwards in 32 KiB blocks and stops as soon as it has
// seen enough line breaks, so printing the last lines of a large log costs a
// few reads instead of a full scan. Lines are returned oldest first with
// their line endings removed. A missing file is not an error: lookout creates
// the log on first start.
package logtail
