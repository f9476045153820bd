package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gametag/assassin/pkg/api/middleware"
	"github.com/gametag/assassin/pkg/game"
	"github.com/gametag/assassin/pkg/game/constants"
	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/log"
	"github.com/gametag/assassin/pkg/queue"
	"github.com/gametag/assassin/pkg/repositories"
)

type createGameRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type joinGameRequest struct {
	Code string `json:"code"`
}

func HandleCreateGame(engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		req := &createGameRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.Name) < 1 || len(req.Name) > 64 {
			http.Error(w, "Name must be between 1 and 64 characters", http.StatusBadRequest)
			return
		}

		state, err := engine.CreateGame(r.Context(), caller, req.Name, req.Description)
		if err != nil {
			log.Error("failed to create game: %v", err)
			http.Error(w, "Failed to create game", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		writeGame(w, state, caller)
	}
}

func HandleListGames(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		states, err := repository.ListGamesForPlayer(r.Context(), caller)
		if err != nil {
			log.Error("failed to list games: %v", err)
			http.Error(w, "Failed to list games", http.StatusInternalServerError)
			return
		}

		views := make([]*GameView, 0, len(states))
		for _, state := range states {
			views = append(views, NewGameView(state, caller))
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(views); err != nil {
			log.Error("failed to encode games: %v", err)
		}
	}
}

func HandleGetGame(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		gameID := gametypes.GameID(mux.Vars(r)["gameID"])
		state, err := repository.GetGame(r.Context(), gameID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeGame(w, state, caller)
	}
}

func HandleGetGameByCode(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		code := mux.Vars(r)["code"]
		state, err := repository.GetGameByCode(r.Context(), code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeGame(w, state, caller)
	}
}

func HandleJoinGame(engine *game.Engine, events queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		req := &joinGameRequest{}
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Code == "" {
			http.Error(w, "Code is required", http.StatusBadRequest)
			return
		}

		state, err := mutateWithRetry(func() (*gametypes.GameState, []gametypes.Event, error) {
			return engine.JoinGame(r.Context(), caller, req.Code)
		}, events)
		if err != nil {
			writeError(w, err)
			return
		}
		writeGame(w, state, caller)
	}
}

func HandleStartGame(engine *game.Engine, events queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		gameID := gametypes.GameID(mux.Vars(r)["gameID"])
		state, err := mutateWithRetry(func() (*gametypes.GameState, []gametypes.Event, error) {
			return engine.StartGame(r.Context(), caller, gameID)
		}, events)
		if err != nil {
			writeError(w, err)
			return
		}
		writeGame(w, state, caller)
	}
}

func HandleSurrenderGame(engine *game.Engine, events queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetPlayer(r.Context())
		if !ok {
			http.Error(w, "Failed to get player from context", http.StatusInternalServerError)
			return
		}

		gameID := gametypes.GameID(mux.Vars(r)["gameID"])
		state, err := mutateWithRetry(func() (*gametypes.GameState, []gametypes.Event, error) {
			return engine.SurrenderGame(r.Context(), caller, gameID)
		}, events)
		if err != nil {
			writeError(w, err)
			return
		}
		writeGame(w, state, caller)
	}
}

// mutateWithRetry runs an engine operation, retrying on commit conflicts
// up to the limit. Each retry reloads fresh state inside the engine. On
// success the operation's events are queued for publication in commit
// order.
func mutateWithRetry(op func() (*gametypes.GameState, []gametypes.Event, error), eventQueue queue.Queue) (*gametypes.GameState, error) {
	var lastErr error
	for attempt := 0; attempt < constants.CommitMaxRetries; attempt++ {
		state, events, err := op()
		if err != nil {
			if repositories.IsConflict(err) {
				lastErr = err
				continue
			}
			return nil, err
		}
		for _, event := range events {
			if err := eventQueue.Enqueue(event); err != nil {
				log.Error("Failed to enqueue %s event for game %s: %v", event.EventType(), event.EventGameID(), err)
			}
		}
		return state, nil
	}
	return nil, lastErr
}

func writeGame(w http.ResponseWriter, state *gametypes.GameState, caller gametypes.PlayerID) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewGameView(state, caller)); err != nil {
		log.Error("failed to encode game: %v", err)
	}
}

// writeError maps the engine's error set onto HTTP statuses. Everything
// here except the commit conflict is terminal for the request.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case game.IsInvalidCode(err):
		http.Error(w, "Invalid game code", http.StatusNotFound)
	case game.IsAlreadyStarted(err):
		http.Error(w, "Game has already started", http.StatusConflict)
	case game.IsAlreadyJoined(err):
		http.Error(w, "Already part of this game", http.StatusConflict)
	case game.IsNotOwner(err):
		http.Error(w, "Must own the game to start it", http.StatusForbidden)
	case game.IsInsufficientPlayers(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case game.IsNotStarted(err):
		http.Error(w, "Game is not active", http.StatusConflict)
	case game.IsNotAParticipant(err):
		http.Error(w, "Not an active participant in this game", http.StatusForbidden)
	case repositories.IsNotFound(err):
		http.Error(w, "Game not found", http.StatusNotFound)
	case repositories.IsConflict(err):
		// retries exhausted; the client may simply try again
		http.Error(w, "Game was updated concurrently, please retry", http.StatusConflict)
	default:
		log.Error("unexpected error handling request: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
