package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gametag/assassin/pkg/api/middleware"
	"github.com/gametag/assassin/pkg/auth/providers"
	"github.com/gametag/assassin/pkg/game"
	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/gametag/assassin/pkg/queue"
	"github.com/gametag/assassin/pkg/repositories"
)

type fixedCodes struct {
	code string
}

func (f *fixedCodes) Generate() string {
	return f.code
}

// conflictingRepository fails the next n UpdateGame calls with
// ErrConflict before delegating.
type conflictingRepository struct {
	repositories.Repository
	remaining int
}

func (r *conflictingRepository) UpdateGame(ctx context.Context, state *gametypes.GameState, expectedVersion int64) (*gametypes.GameState, error) {
	if r.remaining > 0 {
		r.remaining--
		return nil, &repositories.ErrConflict{Game: string(state.ID)}
	}
	return r.Repository.UpdateGame(ctx, state, expectedVersion)
}

type testServer struct {
	router     *mux.Router
	repository repositories.Repository
	events     *queue.InMemoryQueue
}

func newTestServer(repository repositories.Repository) *testServer {
	engine := game.NewEngine(game.NewEngineOptions{
		Repository: repository,
		Codes:      &fixedCodes{code: "otter-canyon"},
		Rand:       rand.New(rand.NewSource(23)),
		Now:        func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	events := queue.NewInMemoryQueue(100)
	authMiddleware := middleware.NewAuthMiddleware(providers.NewDevAuthProvider())

	r := mux.NewRouter()
	r.Handle("/games", authMiddleware(HandleListGames(repository))).Methods(http.MethodGet)
	r.Handle("/games", authMiddleware(HandleCreateGame(engine))).Methods(http.MethodPost)
	r.Handle("/games/join", authMiddleware(HandleJoinGame(engine, events))).Methods(http.MethodPost)
	r.Handle("/games/code/{code}", authMiddleware(HandleGetGameByCode(repository))).Methods(http.MethodGet)
	r.Handle("/games/{gameID}", authMiddleware(HandleGetGame(repository))).Methods(http.MethodGet)
	r.Handle("/games/{gameID}/start", authMiddleware(HandleStartGame(engine, events))).Methods(http.MethodPost)
	r.Handle("/games/{gameID}/surrender", authMiddleware(HandleSurrenderGame(engine, events))).Methods(http.MethodPost)

	return &testServer{
		router:     r,
		repository: repository,
		events:     events,
	}
}

func (s *testServer) do(t *testing.T, player, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+player)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) decodeGame(t *testing.T, w *httptest.ResponseRecorder) *GameView {
	t.Helper()
	view := &GameView{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(view))
	return view
}

func (s *testServer) createGame(t *testing.T, owner string) *GameView {
	t.Helper()
	w := s.do(t, owner, http.MethodPost, "/games", map[string]string{"name": "Office Showdown"})
	require.Equal(t, http.StatusCreated, w.Code)
	return s.decodeGame(t, w)
}

func (s *testServer) joinGame(t *testing.T, player, code string) *GameView {
	t.Helper()
	w := s.do(t, player, http.MethodPost, "/games/join", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code)
	return s.decodeGame(t, w)
}

func TestHandleCreateGame(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())

	view := server.createGame(t, "alice")
	assert.Equal(t, "otter-canyon", view.Code)
	assert.Equal(t, gametypes.PlayerID("alice"), view.Owner)
	assert.Equal(t, gametypes.GameStatusLobby, view.Status)
	assert.Equal(t, 1, view.PlayerCount)
	require.NotNil(t, view.Me)
	assert.Equal(t, gametypes.PlayerID("alice"), view.Me.ID)
}

func TestHandleCreateGame_ValidatesName(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())

	w := server.do(t, "alice", http.MethodPost, "/games", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateGame_RequiresAuth(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/games", bytes.NewReader([]byte(`{"name":"x"}`)))
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleJoinGame(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")

	view := server.joinGame(t, "bob", created.Code)
	assert.Equal(t, 2, view.PlayerCount)
	assert.Contains(t, view.Roster, gametypes.PlayerID("bob"))

	// A join queues a game update event for subscribers.
	assert.Equal(t, 1, server.events.Size())
}

func TestHandleJoinGame_Errors(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")

	tests := []struct {
		name     string
		player   string
		code     string
		wantCode int
	}{
		{
			name:     "unknown code",
			player:   "bob",
			code:     "raven-ridge",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "duplicate join",
			player:   "alice",
			code:     created.Code,
			wantCode: http.StatusConflict,
		},
		{
			name:     "missing code",
			player:   "bob",
			code:     "",
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := server.do(t, tt.player, http.MethodPost, "/games/join", map[string]string{"code": tt.code})
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandleStartGame(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")
	server.joinGame(t, "bob", created.Code)
	server.joinGame(t, "carol", created.Code)
	server.events.ClearQueue()

	w := server.do(t, "alice", http.MethodPost, fmt.Sprintf("/games/%s/start", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := server.decodeGame(t, w)
	assert.Equal(t, gametypes.GameStatusActive, view.Status)
	require.NotNil(t, view.Me)
	assert.NotEmpty(t, view.Me.Target, "owner cannot see their own target")

	// A start queues a notification and a game update.
	assert.Equal(t, 2, server.events.Size())
}

func TestHandleStartGame_Errors(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")
	server.joinGame(t, "bob", created.Code)

	tests := []struct {
		name     string
		player   string
		gameID   string
		wantCode int
	}{
		{
			name:     "non-owner",
			player:   "bob",
			gameID:   string(created.ID),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "too few players",
			player:   "alice",
			gameID:   string(created.ID),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown game",
			player:   "alice",
			gameID:   "missing",
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := server.do(t, tt.player, http.MethodPost, fmt.Sprintf("/games/%s/start", tt.gameID), nil)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHandleSurrenderGame(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")
	server.joinGame(t, "bob", created.Code)
	server.joinGame(t, "carol", created.Code)
	w := server.do(t, "alice", http.MethodPost, fmt.Sprintf("/games/%s/start", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, "bob", http.MethodPost, fmt.Sprintf("/games/%s/surrender", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := server.decodeGame(t, w)
	assert.Equal(t, 2, view.AliveCount)
	require.NotNil(t, view.Me)
	assert.True(t, view.Me.Dead)

	// A second surrender by the same player is rejected.
	w = server.do(t, "bob", http.MethodPost, fmt.Sprintf("/games/%s/surrender", created.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// An outsider cannot surrender.
	w = server.do(t, "mallory", http.MethodPost, fmt.Sprintf("/games/%s/surrender", created.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleSurrenderGame_NotStarted(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")
	server.joinGame(t, "bob", created.Code)

	w := server.do(t, "bob", http.MethodPost, fmt.Sprintf("/games/%s/surrender", created.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleGetGame_HidesTargetChain(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")
	server.joinGame(t, "bob", created.Code)
	server.joinGame(t, "carol", created.Code)
	w := server.do(t, "alice", http.MethodPost, fmt.Sprintf("/games/%s/start", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = server.do(t, "bob", http.MethodGet, fmt.Sprintf("/games/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The raw response must not leak the full target mapping.
	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "targets")

	view := &GameView{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), view))
	require.NotNil(t, view.Me)
	assert.NotEmpty(t, view.Me.Target)
	assert.NotEqual(t, gametypes.PlayerID("bob"), view.Me.Target)
}

func TestHandleListGames(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")
	server.joinGame(t, "bob", created.Code)

	w := server.do(t, "bob", http.MethodGet, "/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []*GameView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, created.ID, views[0].ID)

	w = server.do(t, "mallory", http.MethodGet, "/games", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views = nil
	require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
	assert.Empty(t, views)
}

func TestHandleGetGameByCode(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")

	w := server.do(t, "bob", http.MethodGet, "/games/code/OTTER-CANYON", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := server.decodeGame(t, w)
	assert.Equal(t, created.ID, view.ID)
	assert.Nil(t, view.Me, "non-member has no player view")
}

func TestHandleJoinGame_ParallelJoins(t *testing.T) {
	server := newTestServer(repositories.NewInMemoryRepository())
	created := server.createGame(t, "alice")

	// Two players race to join; the loser of the version race is
	// retried by the handler, so both must land on the roster.
	players := []string{"bob", "carol"}
	statuses := make([]int, len(players))
	var wg sync.WaitGroup
	for i, player := range players {
		wg.Add(1)
		go func(i int, player string) {
			defer wg.Done()
			w := server.do(t, player, http.MethodPost, "/games/join", map[string]string{"code": created.Code})
			statuses[i] = w.Code
		}(i, player)
	}
	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, "join by %s failed", players[i])
	}

	w := server.do(t, "alice", http.MethodGet, fmt.Sprintf("/games/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := server.decodeGame(t, w)
	assert.Equal(t, 3, view.PlayerCount)
	assert.ElementsMatch(t, []gametypes.PlayerID{"alice", "bob", "carol"}, view.Roster)
}

func TestMutateWithRetry_RecoversFromConflicts(t *testing.T) {
	inner := repositories.NewInMemoryRepository()
	repository := &conflictingRepository{Repository: inner, remaining: 2}
	server := newTestServer(repository)
	created := server.createGame(t, "alice")

	// The first two commits conflict; the handler retries against the
	// reloaded state and succeeds.
	view := server.joinGame(t, "bob", created.Code)
	assert.Contains(t, view.Roster, gametypes.PlayerID("bob"))
}

func TestMutateWithRetry_GivesUpEventually(t *testing.T) {
	inner := repositories.NewInMemoryRepository()
	repository := &conflictingRepository{Repository: inner, remaining: 1000}
	server := newTestServer(repository)
	created := server.createGame(t, "alice")

	w := server.do(t, "bob", http.MethodPost, "/games/join", map[string]string{"code": created.Code})
	assert.Equal(t, http.StatusConflict, w.Code)
}
