// Package workflow drives acquisition cycles: discovery, transform,
// reconciliation, history recording, and wallpaper application, plus
// the interval scheduler that runs them.
package workflow
