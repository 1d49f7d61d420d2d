package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/masterminds-game/masterminds/internal/game/state"
)

// ErrGameStateNotFound is returned when a room has no stored state.
var ErrGameStateNotFound = errors.New("game state not found")

// GameStateRepository persists room game states in the game_states table.
type GameStateRepository struct {
	db *pgxpool.Pool
}

// NewGameStateRepository creates a GameStateRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewGameStateRepository(db *pgxpool.Pool) *GameStateRepository {
	return &GameStateRepository{db: db}
}

// Load returns the stored state for one room.
//
// Postcondition: Returns the GameState, or ErrGameStateNotFound if the
// room has never been saved.
func (r *GameStateRepository) Load(ctx context.Context, roomCode string) (*state.GameState, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT game_state FROM game_states WHERE room_code = $1`,
		roomCode,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameStateNotFound
		}
		return nil, fmt.Errorf("querying game state for %s: %w", roomCode, err)
	}

	st := state.New()
	if err := json.Unmarshal(payload, st); err != nil {
		return nil, fmt.Errorf("decoding game state for %s: %w", roomCode, err)
	}
	return st, nil
}

// LoadAll returns every stored room state.
//
// Postcondition: Returns a (possibly empty) map, never nil on success.
func (r *GameStateRepository) LoadAll(ctx context.Context) (map[string]*state.GameState, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_code, game_state FROM game_states`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying game states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]*state.GameState)
	for rows.Next() {
		var (
			code    string
			payload []byte
		)
		if err := rows.Scan(&code, &payload); err != nil {
			return nil, fmt.Errorf("scanning game state row: %w", err)
		}

		st := state.New()
		if err := json.Unmarshal(payload, st); err != nil {
			return nil, fmt.Errorf("decoding game state for %s: %w", code, err)
		}
		states[code] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game state rows: %w", err)
	}

	return states, nil
}

// Save upserts every room state in a single transaction.
//
// Postcondition: On success all rooms in states are stored with a fresh
// updated_at; on error no row is changed.
func (r *GameStateRepository) Save(ctx context.Context, states map[string]*state.GameState) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for code, st := range states {
		payload, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("encoding game state for %s: %w", code, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO game_states (room_code, game_state, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (room_code)
			 DO UPDATE SET game_state = EXCLUDED.game_state, updated_at = now()`,
			code, payload,
		)
		if err != nil {
			return fmt.Errorf("upserting game state for %s: %w", code, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save transaction: %w", err)
	}
	return nil
}
