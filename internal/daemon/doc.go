// Package daemon coordinates the background services and enforces
// single-instance execution through a file lock.
package daemon
