package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gametag/assassin/pkg/game/constants"
	"github.com/gametag/assassin/pkg/game/types"
)

// Transitions are pure: each takes a state snapshot and returns a new
// snapshot plus the domain events the mutation produced. The input is
// never modified, so a failed transition leaves nothing to roll back.

// NewGame returns a fresh lobby owned by owner. The owner is the first
// roster member.
func NewGame(id types.GameID, code, name, description string, owner types.PlayerID) *types.GameState {
	return &types.GameState{
		ID:          id,
		Code:        strings.ToLower(code),
		Name:        name,
		Description: description,
		Owner:       owner,
		Roster:      []types.PlayerID{owner},
		Status:      types.GameStatusLobby,
	}
}

// Join adds caller to the roster of a lobby.
func Join(state *types.GameState, caller types.PlayerID) (*types.GameState, []types.Event, error) {
	if state.Status != types.GameStatusLobby {
		return nil, nil, &ErrAlreadyStarted{}
	}
	if state.HasPlayer(caller) {
		return nil, nil, &ErrAlreadyJoined{Player: string(caller)}
	}

	next := state.Clone()
	next.Roster = append(next.Roster, caller)

	events := []types.Event{
		types.GameUpdated{Game: next},
	}
	return next, events, nil
}

// Start assigns targets over the roster and activates the game. Only the
// owner may start, and only with enough players for a meaningful chain.
func Start(state *types.GameState, caller types.PlayerID, rng *rand.Rand, now time.Time) (*types.GameState, []types.Event, error) {
	if caller != state.Owner {
		return nil, nil, &ErrNotOwner{}
	}
	if state.Status != types.GameStatusLobby {
		return nil, nil, &ErrAlreadyStarted{}
	}
	if len(state.Roster) < constants.MinPlayersToStart {
		return nil, nil, &ErrInsufficientPlayers{Count: len(state.Roster), Min: constants.MinPlayersToStart}
	}

	next := state.Clone()
	next.Targets = AssignTargets(next.Roster, rng)
	next.Status = types.GameStatusActive
	startTime := now
	next.StartTime = &startTime

	events := []types.Event{
		types.Notification{
			GameID:  next.ID,
			Roster:  next.Roster,
			Message: fmt.Sprintf("%s has started.", next.Name),
		},
		types.GameUpdated{Game: next},
	}
	return next, events, nil
}

// Surrender eliminates caller from an active game and relinks the target
// chain: the player hunting caller inherits caller's target. A relink
// that leaves the hunter targeting itself means only one player remains,
// which completes the game.
func Surrender(state *types.GameState, caller types.PlayerID) (*types.GameState, []types.Event, error) {
	if state.Status != types.GameStatusActive {
		return nil, nil, &ErrNotStarted{}
	}
	if !state.HasPlayer(caller) || state.IsEliminated(caller) {
		return nil, nil, &ErrNotAParticipant{Player: string(caller)}
	}

	next := state.Clone()
	victim, ok := next.TargetOf(caller)
	if !ok {
		return nil, nil, fmt.Errorf("active player %s has no target", caller)
	}
	hunter, ok := next.HunterOf(caller)
	if !ok {
		return nil, nil, fmt.Errorf("active player %s has no hunter", caller)
	}

	next.Targets[hunter] = victim
	delete(next.Targets, caller)
	next.Eliminated = append(next.Eliminated, caller)

	var message string
	if hunter == victim {
		// The hunter caught itself: the chain collapsed to a single
		// player and the game is over.
		next.Status = types.GameStatusCompleted
		next.Winner = hunter
		message = fmt.Sprintf("%s won the game %q!", hunter, next.Name)
	} else {
		message = fmt.Sprintf("%s has eliminated %s.", hunter, caller)
	}

	events := []types.Event{
		types.Notification{
			GameID:  next.ID,
			Roster:  next.Roster,
			Message: message,
		},
		types.GameUpdated{Game: next},
	}
	return next, events, nil
}
