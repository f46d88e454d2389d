// Package trim consumes a note metadata log and trims each rendered file so
// it starts at its recorded onset.
//
// Every valid row resolves <dir>/<filename>.<extension>. Rows without an
// onset, rows whose file is missing, and files the ledger already trimmed are
// skipped. Trims write a hidden temporary sibling and rename it over the
// original, so a failure never damages the rendered file. Malformed rows and
// failed trims are counted and the stage moves on.
package trim
