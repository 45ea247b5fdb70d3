// Package runstore persists per-cycle run records in SQLite so the CLI
// can report recent activity across daemon restarts.
package runstore
