// Package codec converts between session files and records.
//
// A session file is a sequence of JSON records, each followed by "~" and a
// newline. Every record carries a "$type" discriminator naming one entry of a
// closed catalogue: the persisted services and the session envelope. Records
// are written in RFC 8785 canonical form, and any "~" inside a record is
// written as the escape \u007e, so the separator never occurs inside a record
// and re-encoding an unchanged session yields identical bytes.
package codec
