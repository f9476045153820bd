package repositories

import (
	"context"
	"strings"
	"sync"

	gametypes "github.com/gametag/assassin/pkg/game/types"
)

// InMemoryRepository is a Repository backed by a process-local map.
// It is used in tests and for single-process development servers.
type InMemoryRepository struct {
	lock  sync.RWMutex
	games map[gametypes.GameID]*gametypes.GameState
	// codes indexes non-completed games by lowercased join code
	codes map[string]gametypes.GameID
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		games: make(map[gametypes.GameID]*gametypes.GameState),
		codes: make(map[string]gametypes.GameID),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) CreateGame(ctx context.Context, state *gametypes.GameState) (*gametypes.GameState, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	code := strings.ToLower(state.Code)
	if _, taken := r.codes[code]; taken {
		return nil, &ErrCodeTaken{Code: state.Code}
	}

	stored := state.Clone()
	stored.Code = code
	stored.Version = 1
	r.games[stored.ID] = stored
	r.codes[code] = stored.ID

	return stored.Clone(), nil
}

func (r *InMemoryRepository) GetGame(ctx context.Context, id gametypes.GameID) (*gametypes.GameState, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	stored, ok := r.games[id]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return stored.Clone(), nil
}

func (r *InMemoryRepository) GetGameByCode(ctx context.Context, code string) (*gametypes.GameState, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.codes[strings.ToLower(code)]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return r.games[id].Clone(), nil
}

func (r *InMemoryRepository) UpdateGame(ctx context.Context, state *gametypes.GameState, expectedVersion int64) (*gametypes.GameState, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.games[state.ID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	if stored.Version != expectedVersion {
		return nil, &ErrConflict{Game: string(state.ID)}
	}

	committed := state.Clone()
	committed.Version = expectedVersion + 1
	r.games[state.ID] = committed

	// completed games free their join code for reuse
	if committed.Status == gametypes.GameStatusCompleted {
		delete(r.codes, committed.Code)
	}

	return committed.Clone(), nil
}

func (r *InMemoryRepository) ListGamesForPlayer(ctx context.Context, player gametypes.PlayerID) ([]*gametypes.GameState, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var games []*gametypes.GameState
	for _, stored := range r.games {
		if stored.HasPlayer(player) {
			games = append(games, stored.Clone())
		}
	}
	return games, nil
}
