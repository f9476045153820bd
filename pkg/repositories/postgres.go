package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"
	// pgOpenCodeIndex is the partial unique index on the join code of
	// non-completed games (see migrations/postgres)
	pgOpenCodeIndex = "games_open_code"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database described by connStr.
// The schema is managed externally (see migrations/postgres).
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}
	return &PostgresRepository{
		pool: pool,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) CreateGame(ctx context.Context, state *gametypes.GameState) (*gametypes.GameState, error) {
	stored := state.Clone()
	stored.Code = strings.ToLower(stored.Code)
	stored.Version = 1

	roster, targets, eliminated, err := marshalChainColumns(stored)
	if err != nil {
		return nil, err
	}

	q := `
	INSERT INTO games (id, code, name, description, owner_id, roster, status, start_time, targets, eliminated, winner_id, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.pool.Exec(ctx, q,
		string(stored.ID), stored.Code, stored.Name, stored.Description, string(stored.Owner),
		roster, string(stored.Status), stored.StartTime, targets, eliminated,
		pgNullableID(string(stored.Winner)), stored.Version)
	if err != nil {
		return nil, pgInsertError(err, stored.Code)
	}

	return stored, nil
}

// pgInsertError maps a violation of the open-code index to ErrCodeTaken.
// Any other failure, including a unique violation on another constraint,
// stays a generic error.
func pgInsertError(err error, code string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == pgOpenCodeIndex {
		return &ErrCodeTaken{Code: code}
	}
	return fmt.Errorf("failed to insert game: %v", err)
}

func (r *PostgresRepository) GetGame(ctx context.Context, id gametypes.GameID) (*gametypes.GameState, error) {
	q := pgGameSelectColumns + ` FROM games WHERE id = $1;`
	return scanPgGame(r.pool.QueryRow(ctx, q, string(id)))
}

func (r *PostgresRepository) GetGameByCode(ctx context.Context, code string) (*gametypes.GameState, error) {
	q := pgGameSelectColumns + ` FROM games WHERE code = $1 AND status != $2;`
	return scanPgGame(r.pool.QueryRow(ctx, q, strings.ToLower(code), string(gametypes.GameStatusCompleted)))
}

func (r *PostgresRepository) UpdateGame(ctx context.Context, state *gametypes.GameState, expectedVersion int64) (*gametypes.GameState, error) {
	roster, targets, eliminated, err := marshalChainColumns(state)
	if err != nil {
		return nil, err
	}

	q := `
	UPDATE games
	SET roster = $1, status = $2, start_time = $3, targets = $4, eliminated = $5, winner_id = $6, version = version + 1
	WHERE id = $7 AND version = $8;
	`
	result, err := r.pool.Exec(ctx, q,
		roster, string(state.Status), state.StartTime, targets, eliminated,
		pgNullableID(string(state.Winner)), string(state.ID), expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to update game: %v", err)
	}

	if result.RowsAffected() == 0 {
		if _, err := r.GetGame(ctx, state.ID); err != nil {
			return nil, err
		}
		return nil, &ErrConflict{Game: string(state.ID)}
	}

	committed := state.Clone()
	committed.Version = expectedVersion + 1
	return committed, nil
}

func (r *PostgresRepository) ListGamesForPlayer(ctx context.Context, player gametypes.PlayerID) ([]*gametypes.GameState, error) {
	q := pgGameSelectColumns + ` FROM games WHERE roster @> to_jsonb($1::text);`
	rows, err := r.pool.Query(ctx, q, string(player))
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %v", err)
	}
	defer rows.Close()

	var games []*gametypes.GameState
	for rows.Next() {
		state, err := scanPgGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, state)
	}
	return games, rows.Err()
}

const pgGameSelectColumns = `
	SELECT id, code, name, description, owner_id, roster, status, start_time, targets, eliminated, winner_id, version
`

func scanPgGame(row pgx.Row) (*gametypes.GameState, error) {
	var (
		id, code, name, description, owner, status string
		roster                                     []byte
		startTime                                  *time.Time
		targets, eliminated                        []byte
		winner                                     *string
		version                                    int64
	)
	if err := row.Scan(&id, &code, &name, &description, &owner, &roster, &status, &startTime, &targets, &eliminated, &winner, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}

	state := &gametypes.GameState{
		ID:          gametypes.GameID(id),
		Code:        code,
		Name:        name,
		Description: description,
		Owner:       gametypes.PlayerID(owner),
		Status:      gametypes.GameStatus(status),
		StartTime:   startTime,
		Version:     version,
	}
	if winner != nil {
		state.Winner = gametypes.PlayerID(*winner)
	}
	if err := json.Unmarshal(roster, &state.Roster); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roster: %v", err)
	}
	if len(targets) > 0 {
		if err := json.Unmarshal(targets, &state.Targets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal targets: %v", err)
		}
	}
	if len(eliminated) > 0 {
		if err := json.Unmarshal(eliminated, &state.Eliminated); err != nil {
			return nil, fmt.Errorf("failed to unmarshal eliminated: %v", err)
		}
	}
	return state, nil
}

func pgNullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
