// Package notifications delivers workflow event notifications through
// ntfy. An empty topic disables delivery entirely.
package notifications
