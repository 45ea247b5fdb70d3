package workflow

import (
	"errors"
	"fmt"
)

// Stage sentinels. Every cycle failure wraps exactly one of these so
// callers can tell which stage gave up without parsing messages. Earlier
// stages never fail a cycle: an unreachable source ends the cycle as an
// empty no-op, and fetch or filter losses drop the candidate inside the
// transform pipeline.
var (
	ErrReconcileFailed = errors.New("reconcile failed")
	ErrApplyFailed     = errors.New("apply failed")
)

// Wrap attaches a stage sentinel to err. A nil err returns the
// sentinel itself.
func Wrap(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
