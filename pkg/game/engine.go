package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gametag/assassin/pkg/codes"
	"github.com/gametag/assassin/pkg/game/constants"
	"github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/repositories"
)

// Engine orchestrates game operations: it loads a snapshot from the
// repository, applies one pure transition, and commits the result with
// the snapshot's version. Operations are single-shot: a commit conflict
// is returned to the caller as repositories.ErrConflict, and the calling
// layer retries against the freshly committed state.
//
// The engine holds no per-game locks and no process-wide state; the
// repository's compare-and-swap is the only write serialization.
type Engine struct {
	repository repositories.Repository
	codes      codes.Generator
	// rngLock serializes target assignment; rand.Rand is not safe for
	// use from concurrent StartGame calls.
	rngLock sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
}

type NewEngineOptions struct {
	Repository repositories.Repository
	Codes      codes.Generator
	// Rand is the source used for target assignment. Defaults to a
	// time-seeded source; tests pass a seeded one.
	Rand *rand.Rand
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func NewEngine(opts NewEngineOptions) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		repository: opts.Repository,
		codes:      opts.Codes,
		rng:        rng,
		now:        now,
	}
}

// CreateGame creates a new lobby owned by owner, generating a join code
// and retrying on collision with another open game.
func (e *Engine) CreateGame(ctx context.Context, owner types.PlayerID, name, description string) (*types.GameState, error) {
	for attempt := 0; attempt < constants.CreateCodeMaxRetries; attempt++ {
		state := NewGame(types.GameID(uuid.NewString()), e.codes.Generate(), name, description, owner)
		created, err := e.repository.CreateGame(ctx, state)
		if err != nil {
			if repositories.IsCodeTaken(err) {
				continue
			}
			return nil, fmt.Errorf("failed to create game: %v", err)
		}
		return created, nil
	}
	return nil, fmt.Errorf("failed to generate an unused join code after %d attempts", constants.CreateCodeMaxRetries)
}

// JoinGame adds caller to the lobby identified by code.
func (e *Engine) JoinGame(ctx context.Context, caller types.PlayerID, code string) (*types.GameState, []types.Event, error) {
	state, err := e.repository.GetGameByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil, &ErrInvalidCode{Code: code}
		}
		return nil, nil, fmt.Errorf("failed to load game by code: %v", err)
	}

	next, events, err := Join(state, caller)
	if err != nil {
		return nil, nil, err
	}
	return e.commit(ctx, next, state.Version, events)
}

// StartGame activates the game identified by id, assigning targets.
func (e *Engine) StartGame(ctx context.Context, caller types.PlayerID, id types.GameID) (*types.GameState, []types.Event, error) {
	state, err := e.repository.GetGame(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	e.rngLock.Lock()
	next, events, err := Start(state, caller, e.rng, e.now())
	e.rngLock.Unlock()
	if err != nil {
		return nil, nil, err
	}
	return e.commit(ctx, next, state.Version, events)
}

// SurrenderGame eliminates caller from the game identified by id.
func (e *Engine) SurrenderGame(ctx context.Context, caller types.PlayerID, id types.GameID) (*types.GameState, []types.Event, error) {
	state, err := e.repository.GetGame(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	next, events, err := Surrender(state, caller)
	if err != nil {
		return nil, nil, err
	}
	return e.commit(ctx, next, state.Version, events)
}

// commit writes the new snapshot and rebinds GameUpdated events to the
// committed state so subscribers see the post-commit version.
func (e *Engine) commit(ctx context.Context, next *types.GameState, expectedVersion int64, events []types.Event) (*types.GameState, []types.Event, error) {
	committed, err := e.repository.UpdateGame(ctx, next, expectedVersion)
	if err != nil {
		return nil, nil, err
	}

	rebound := make([]types.Event, len(events))
	for i, event := range events {
		if _, ok := event.(types.GameUpdated); ok {
			rebound[i] = types.GameUpdated{Game: committed}
		} else {
			rebound[i] = event
		}
	}
	return committed, rebound, nil
}
