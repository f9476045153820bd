package repositories

import "fmt"

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ErrConflict signals that a commit raced with another writer and was
// applied to a stale snapshot. It is the only retryable error: reload
// the game and reapply the operation.
type ErrConflict struct {
	Game string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("stale version for game %s", e.Game)
}

func IsConflict(err error) bool {
	_, ok := err.(*ErrConflict)
	return ok
}

type ErrCodeTaken struct {
	Code string
}

func (e *ErrCodeTaken) Error() string {
	return fmt.Sprintf("join code %q is already in use", e.Code)
}

func IsCodeTaken(err error) bool {
	_, ok := err.(*ErrCodeTaken)
	return ok
}
