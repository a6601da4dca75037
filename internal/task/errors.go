package task

import "errors"

var (
	ErrEmptyTitle    = errors.New("task title must not be empty")
	ErrNotOwner      = errors.New("only the task owner can do that")
	ErrUnknownTab    = errors.New("unknown view tab")
	ErrBadDueDate    = errors.New("due date must look like due:2026-01-31")
	ErrBadRecurrence = errors.New("recurring must be one of daily, weekly, monthly")
	ErrBadRemind     = errors.New("remind must be morning, after-lunch, eod or an explicit 2026-01-31T09:00")
)

// IsUserError reports whether err should be echoed back to the invoking user
// as a corrective message rather than logged as a failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrBadDueDate) ||
		errors.Is(err, ErrBadRecurrence) ||
		errors.Is(err, ErrBadRemind) ||
		errors.Is(err, ErrUnknownTab)
}
