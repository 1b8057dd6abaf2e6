package attendance

import "errors"

// Transition conflicts, checked before any row is touched.
var (
	ErrShiftAlreadyActive   = errors.New("shift already active")
	ErrNoActiveShift        = errors.New("no active shift")
	ErrBreakAlreadyActive   = errors.New("break already active")
	ErrNoActiveBreak        = errors.New("no active break")
	ErrNoActiveShiftToEnd   = errors.New("no active shift for ending")
	ErrConcurrentTransition = errors.New("another attendance action is in progress")
)
