package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/gametag/assassin/pkg/game/types"
)

func newGame(id gametypes.GameID, code string, roster ...gametypes.PlayerID) *gametypes.GameState {
	return &gametypes.GameState{
		ID:     id,
		Code:   code,
		Name:   "Test Game",
		Owner:  roster[0],
		Roster: roster,
		Status: gametypes.GameStatusLobby,
	}
}

func TestInMemoryRepository_CreateGame(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	created, err := repository.CreateGame(ctx, newGame("game-1", "Otter-Canyon", "alice"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, "otter-canyon", created.Code)

	_, err = repository.CreateGame(ctx, newGame("game-2", "OTTER-CANYON", "bob"))
	require.Error(t, err)
	assert.True(t, IsCodeTaken(err), "unexpected error type: %v", err)
}

func TestInMemoryRepository_GetGameByCode(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	_, err := repository.CreateGame(ctx, newGame("game-1", "otter-canyon", "alice"))
	require.NoError(t, err)

	state, err := repository.GetGameByCode(ctx, "OTTER-canyon")
	require.NoError(t, err)
	assert.Equal(t, gametypes.GameID("game-1"), state.ID)

	_, err = repository.GetGameByCode(ctx, "raven-ridge")
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "unexpected error type: %v", err)
}

func TestInMemoryRepository_UpdateGame(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	created, err := repository.CreateGame(ctx, newGame("game-1", "otter-canyon", "alice"))
	require.NoError(t, err)

	next := created.Clone()
	next.Roster = append(next.Roster, "bob")
	committed, err := repository.UpdateGame(ctx, next, created.Version)
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, committed.Version)

	// A second commit against the original version conflicts.
	stale := created.Clone()
	stale.Roster = append(stale.Roster, "carol")
	_, err = repository.UpdateGame(ctx, stale, created.Version)
	require.Error(t, err)
	assert.True(t, IsConflict(err), "unexpected error type: %v", err)

	// The stored state is the first commit, untouched by the loser.
	stored, err := repository.GetGame(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []gametypes.PlayerID{"alice", "bob"}, stored.Roster)
}

func TestInMemoryRepository_UpdateGame_NotFound(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	_, err := repository.UpdateGame(ctx, newGame("missing", "otter-canyon", "alice"), 1)
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "unexpected error type: %v", err)
}

func TestInMemoryRepository_CompletedGameFreesCode(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	created, err := repository.CreateGame(ctx, newGame("game-1", "otter-canyon", "alice"))
	require.NoError(t, err)

	next := created.Clone()
	next.Status = gametypes.GameStatusCompleted
	next.Winner = "alice"
	_, err = repository.UpdateGame(ctx, next, created.Version)
	require.NoError(t, err)

	// Completed games are no longer reachable by code.
	_, err = repository.GetGameByCode(ctx, "otter-canyon")
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "unexpected error type: %v", err)

	// The code is available for a new game.
	_, err = repository.CreateGame(ctx, newGame("game-2", "otter-canyon", "bob"))
	require.NoError(t, err)
}

func TestInMemoryRepository_ListGamesForPlayer(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	_, err := repository.CreateGame(ctx, newGame("game-1", "otter-canyon", "alice", "bob"))
	require.NoError(t, err)
	_, err = repository.CreateGame(ctx, newGame("game-2", "raven-ridge", "carol", "bob"))
	require.NoError(t, err)
	_, err = repository.CreateGame(ctx, newGame("game-3", "pine-mesa", "carol"))
	require.NoError(t, err)

	games, err := repository.ListGamesForPlayer(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, games, 2)

	games, err = repository.ListGamesForPlayer(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestInMemoryRepository_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repository := NewInMemoryRepository()

	created, err := repository.CreateGame(ctx, newGame("game-1", "otter-canyon", "alice"))
	require.NoError(t, err)

	loaded, err := repository.GetGame(ctx, created.ID)
	require.NoError(t, err)
	loaded.Roster = append(loaded.Roster, "mallory")

	stored, err := repository.GetGame(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []gametypes.PlayerID{"alice"}, stored.Roster)
}
