// Package ipc provides JSON-RPC daemon control over a Unix domain
// socket, plus the matching client used by the CLI.
package ipc
