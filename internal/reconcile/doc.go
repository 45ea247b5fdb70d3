// Package reconcile converges the destination directory to the set of
// assets accepted in the current cycle. It is the only writer of the
// destination's contents.
package reconcile
