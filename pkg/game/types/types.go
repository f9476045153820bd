package types

import "time"

// GameID uniquely identifies a game instance.
type GameID string

// PlayerID is an opaque player identifier. It is assigned by the identity
// provider at the boundary and never interpreted by the engine.
type PlayerID string

// GameStatus is the lifecycle state of a game. Transitions are monotonic:
// lobby -> active -> completed.
type GameStatus string

const (
	GameStatusLobby     GameStatus = "lobby"
	GameStatusActive    GameStatus = "active"
	GameStatusCompleted GameStatus = "completed"
)

// GameState is the aggregate for one game instance. It is persisted as a
// whole and guarded by optimistic concurrency on Version: every committed
// mutation increments Version, and a commit against a stale Version fails.
type GameState struct {
	ID          GameID     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       PlayerID   `json:"owner"`
	Roster      []PlayerID `json:"roster"`
	Status      GameStatus `json:"status"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	// Targets maps each player to the player they are hunting. It is set
	// when the game starts and forms a single cycle over the roster.
	// Eliminated players have no outgoing edge.
	Targets    map[PlayerID]PlayerID `json:"targets,omitempty"`
	Eliminated []PlayerID            `json:"eliminated,omitempty"`
	Winner     PlayerID              `json:"winner,omitempty"`
	Version    int64                 `json:"version"`
}

// HasPlayer reports whether id is on the roster.
func (g *GameState) HasPlayer(id PlayerID) bool {
	for _, p := range g.Roster {
		if p == id {
			return true
		}
	}
	return false
}

// IsEliminated reports whether id has been eliminated from the game.
func (g *GameState) IsEliminated(id PlayerID) bool {
	for _, p := range g.Eliminated {
		if p == id {
			return true
		}
	}
	return false
}

// AlivePlayers returns the roster members still in contention,
// in roster order.
func (g *GameState) AlivePlayers() []PlayerID {
	alive := make([]PlayerID, 0, len(g.Roster))
	for _, p := range g.Roster {
		if !g.IsEliminated(p) {
			alive = append(alive, p)
		}
	}
	return alive
}

// AliveCount returns the number of players still in contention.
func (g *GameState) AliveCount() int {
	return len(g.AlivePlayers())
}

// HunterOf returns the player whose target is id, i.e. the player
// hunting id. The boolean is false if no such edge exists.
func (g *GameState) HunterOf(id PlayerID) (PlayerID, bool) {
	for hunter, victim := range g.Targets {
		if victim == id {
			return hunter, true
		}
	}
	return "", false
}

// TargetOf returns the player id is hunting. The boolean is false if id
// has no outgoing edge.
func (g *GameState) TargetOf(id PlayerID) (PlayerID, bool) {
	target, ok := g.Targets[id]
	return target, ok
}

// Clone returns a deep copy of the game state. Transitions operate on a
// clone so that a failed operation never leaves a partially mutated
// snapshot visible to the caller.
func (g *GameState) Clone() *GameState {
	clone := *g
	clone.Roster = make([]PlayerID, len(g.Roster))
	copy(clone.Roster, g.Roster)
	if g.Eliminated != nil {
		clone.Eliminated = make([]PlayerID, len(g.Eliminated))
		copy(clone.Eliminated, g.Eliminated)
	}
	if g.Targets != nil {
		clone.Targets = make(map[PlayerID]PlayerID, len(g.Targets))
		for k, v := range g.Targets {
			clone.Targets[k] = v
		}
	}
	if g.StartTime != nil {
		t := *g.StartTime
		clone.StartTime = &t
	}
	return &clone
}
