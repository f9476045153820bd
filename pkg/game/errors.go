package game

import "fmt"

// The engine reports expected failures as typed errors so the API layer
// can handle the full set exhaustively. None of these are retryable;
// commit conflicts are reported by the repositories package.

type ErrInvalidCode struct {
	Code string
}

func (e *ErrInvalidCode) Error() string {
	return fmt.Sprintf("no open game with code %q", e.Code)
}

func IsInvalidCode(err error) bool {
	_, ok := err.(*ErrInvalidCode)
	return ok
}

type ErrAlreadyStarted struct {
}

func (e *ErrAlreadyStarted) Error() string {
	return "game has already started"
}

func IsAlreadyStarted(err error) bool {
	_, ok := err.(*ErrAlreadyStarted)
	return ok
}

type ErrAlreadyJoined struct {
	Player string
}

func (e *ErrAlreadyJoined) Error() string {
	return fmt.Sprintf("player %s is already part of this game", e.Player)
}

func IsAlreadyJoined(err error) bool {
	_, ok := err.(*ErrAlreadyJoined)
	return ok
}

type ErrNotOwner struct {
}

func (e *ErrNotOwner) Error() string {
	return "only the game owner can start the game"
}

func IsNotOwner(err error) bool {
	_, ok := err.(*ErrNotOwner)
	return ok
}

type ErrInsufficientPlayers struct {
	Count int
	Min   int
}

func (e *ErrInsufficientPlayers) Error() string {
	return fmt.Sprintf("need at least %d players to start, have %d", e.Min, e.Count)
}

func IsInsufficientPlayers(err error) bool {
	_, ok := err.(*ErrInsufficientPlayers)
	return ok
}

type ErrNotStarted struct {
}

func (e *ErrNotStarted) Error() string {
	return "game is not active"
}

func IsNotStarted(err error) bool {
	_, ok := err.(*ErrNotStarted)
	return ok
}

type ErrNotAParticipant struct {
	Player string
}

func (e *ErrNotAParticipant) Error() string {
	return fmt.Sprintf("player %s is not an active participant in this game", e.Player)
}

func IsNotAParticipant(err error) bool {
	_, ok := err.(*ErrNotAParticipant)
	return ok
}
