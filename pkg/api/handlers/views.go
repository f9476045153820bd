package handlers

import (
	"time"

	gametypes "github.com/gametag/assassin/pkg/game/types"
)

// GameView is the API representation of a game. The target chain is
// hidden: each caller sees only their own target via Me.
type GameView struct {
	ID          gametypes.GameID     `json:"id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Owner       gametypes.PlayerID   `json:"owner"`
	Roster      []gametypes.PlayerID `json:"roster"`
	Status      gametypes.GameStatus `json:"status"`
	StartTime   *time.Time           `json:"startTime,omitempty"`
	Eliminated  []gametypes.PlayerID `json:"eliminated,omitempty"`
	Winner      gametypes.PlayerID   `json:"winner,omitempty"`
	PlayerCount int                  `json:"playerCount"`
	AliveCount  int                  `json:"aliveCount"`
	Me          *PlayerView          `json:"me,omitempty"`
}

// PlayerView is the caller's own standing in a game.
type PlayerView struct {
	ID     gametypes.PlayerID `json:"id"`
	Target gametypes.PlayerID `json:"target,omitempty"`
	Dead   bool               `json:"dead"`
}

func NewGameView(state *gametypes.GameState, caller gametypes.PlayerID) *GameView {
	view := &GameView{
		ID:          state.ID,
		Code:        state.Code,
		Name:        state.Name,
		Description: state.Description,
		Owner:       state.Owner,
		Roster:      state.Roster,
		Status:      state.Status,
		StartTime:   state.StartTime,
		Eliminated:  state.Eliminated,
		Winner:      state.Winner,
		PlayerCount: len(state.Roster),
		AliveCount:  state.AliveCount(),
	}
	if state.HasPlayer(caller) {
		me := &PlayerView{
			ID:   caller,
			Dead: state.IsEliminated(caller),
		}
		if target, ok := state.TargetOf(caller); ok {
			me.Target = target
		}
		view.Me = me
	}
	return view
}
