package repositories

import (
	"context"

	gametypes "github.com/gametag/assassin/pkg/game/types"
)

// Repository is the durable store for game state. It is the source of
// truth between operations: the engine loads a snapshot, applies one
// transition, and commits the result with UpdateGame.
//
// Implementations must provide at-most-one-writer-at-a-time semantics
// per game: UpdateGame commits only if the stored version still equals
// expectedVersion, and fails with ErrConflict otherwise. Callers retry
// conflicted operations against the freshly committed state.
type Repository interface {
	Close(ctx context.Context) error
	// CreateGame stores a new game with version 1. It fails with
	// ErrCodeTaken if another non-completed game holds the same join
	// code (case-insensitive).
	CreateGame(ctx context.Context, state *gametypes.GameState) (*gametypes.GameState, error)
	// GetGame returns the game with the given id, or ErrNotFound.
	GetGame(ctx context.Context, id gametypes.GameID) (*gametypes.GameState, error)
	// GetGameByCode returns the non-completed game with the given join
	// code, matched case-insensitively, or ErrNotFound.
	GetGameByCode(ctx context.Context, code string) (*gametypes.GameState, error)
	// UpdateGame commits state if the stored version equals
	// expectedVersion, incrementing the version. It returns the
	// committed snapshot, ErrConflict on a stale version, or
	// ErrNotFound if the game does not exist.
	UpdateGame(ctx context.Context, state *gametypes.GameState, expectedVersion int64) (*gametypes.GameState, error)
	// ListGamesForPlayer returns every game whose roster contains player.
	ListGamesForPlayer(ctx context.Context, player gametypes.PlayerID) ([]*gametypes.GameState, error)
}
