package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gametypes "github.com/gametag/assassin/pkg/game/types"
	"github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path and applies
// every .sql file in the migrations directory in lexical order.
func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateGame(ctx context.Context, state *gametypes.GameState) (*gametypes.GameState, error) {
	stored := state.Clone()
	stored.Code = strings.ToLower(stored.Code)
	stored.Version = 1

	roster, targets, eliminated, err := marshalChainColumns(stored)
	if err != nil {
		return nil, err
	}

	q := `
	INSERT INTO games (id, code, name, description, owner_id, roster, status, start_time, targets, eliminated, winner_id, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q,
		string(stored.ID), stored.Code, stored.Name, stored.Description, string(stored.Owner),
		roster, string(stored.Status), startTimeMillis(stored), targets, eliminated,
		nullableID(string(stored.Winner)), stored.Version)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, &ErrCodeTaken{Code: stored.Code}
		}
		return nil, fmt.Errorf("failed to insert game: %v", err)
	}

	return stored, nil
}

func (r *SQLiteRepository) GetGame(ctx context.Context, id gametypes.GameID) (*gametypes.GameState, error) {
	q := gameSelectColumns + ` FROM games WHERE id = ?;`
	return scanGame(r.db.QueryRowContext(ctx, q, string(id)))
}

func (r *SQLiteRepository) GetGameByCode(ctx context.Context, code string) (*gametypes.GameState, error) {
	q := gameSelectColumns + ` FROM games WHERE code = ? AND status != ?;`
	return scanGame(r.db.QueryRowContext(ctx, q, strings.ToLower(code), string(gametypes.GameStatusCompleted)))
}

func (r *SQLiteRepository) UpdateGame(ctx context.Context, state *gametypes.GameState, expectedVersion int64) (*gametypes.GameState, error) {
	roster, targets, eliminated, err := marshalChainColumns(state)
	if err != nil {
		return nil, err
	}

	q := `
	UPDATE games
	SET roster = ?, status = ?, start_time = ?, targets = ?, eliminated = ?, winner_id = ?, version = version + 1
	WHERE id = ? AND version = ?;
	`
	result, err := r.db.ExecContext(ctx, q,
		roster, string(state.Status), startTimeMillis(state), targets, eliminated,
		nullableID(string(state.Winner)), string(state.ID), expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to update game: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %v", err)
	}
	if affected == 0 {
		// distinguish a missing game from a stale version
		if _, err := r.GetGame(ctx, state.ID); err != nil {
			return nil, err
		}
		return nil, &ErrConflict{Game: string(state.ID)}
	}

	committed := state.Clone()
	committed.Version = expectedVersion + 1
	return committed, nil
}

func (r *SQLiteRepository) ListGamesForPlayer(ctx context.Context, player gametypes.PlayerID) ([]*gametypes.GameState, error) {
	q := gameSelectColumns + `
	FROM games
	WHERE EXISTS (SELECT 1 FROM json_each(games.roster) WHERE json_each.value = ?);
	`
	rows, err := r.db.QueryContext(ctx, q, string(player))
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %v", err)
	}
	defer rows.Close()

	var games []*gametypes.GameState
	for rows.Next() {
		state, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, state)
	}
	return games, rows.Err()
}

const gameSelectColumns = `
	SELECT id, code, name, description, owner_id, roster, status, start_time, targets, eliminated, winner_id, version
`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*gametypes.GameState, error) {
	var (
		id, code, name, description, owner, status string
		roster                                     []byte
		startTime                                  sql.NullInt64
		targets, eliminated                        []byte
		winner                                     sql.NullString
		version                                    int64
	)
	if err := row.Scan(&id, &code, &name, &description, &owner, &roster, &status, &startTime, &targets, &eliminated, &winner, &version); err != nil {
		if err == sql.ErrNoRows {
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
		Winner:      gametypes.PlayerID(winner.String),
		Version:     version,
	}
	if startTime.Valid {
		t := time.UnixMilli(startTime.Int64).UTC()
		state.StartTime = &t
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

func marshalChainColumns(state *gametypes.GameState) (roster, targets, eliminated []byte, err error) {
	roster, err = json.Marshal(state.Roster)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal roster: %v", err)
	}
	if state.Targets != nil {
		targets, err = json.Marshal(state.Targets)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal targets: %v", err)
		}
	}
	if state.Eliminated != nil {
		eliminated, err = json.Marshal(state.Eliminated)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to marshal eliminated: %v", err)
		}
	}
	return roster, targets, eliminated, nil
}

func startTimeMillis(state *gametypes.GameState) sql.NullInt64 {
	if state.StartTime == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: state.StartTime.UnixMilli(), Valid: true}
}

func nullableID(id string) sql.NullString {
	if id == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: id, Valid: true}
}
