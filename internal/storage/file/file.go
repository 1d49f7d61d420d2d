// Package file provides the local JSON-file game-state backend.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/masterminds-game/masterminds/internal/game/state"
)

// ErrNotFound is returned when a room has no stored state.
var ErrNotFound = errors.New("game state not found")

// Store persists the full game-state mapping as a single JSON file.
type Store struct {
	path string
}

// NewStore creates a file store writing to path.
//
// Precondition: path must be non-empty.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// LoadAll reads the stored mapping.
//
// Postcondition: A missing file yields an empty map and a nil error;
// only read or parse failures return an error.
func (s *Store) LoadAll(ctx context.Context) (map[string]*state.GameState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]*state.GameState), nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	states := make(map[string]*state.GameState)
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return states, nil
}

// Load returns the stored state for one room, or ErrNotFound.
func (s *Store) Load(ctx context.Context, roomCode string) (*state.GameState, error) {
	states, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := states[roomCode]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// Save writes the full mapping, replacing the previous file contents.
// The write goes through a temp file and a rename so a crash mid-write
// never leaves a truncated store behind.
func (s *Store) Save(ctx context.Context, states map[string]*state.GameState) error {
	data, err := json.Marshal(states)
	if err != nil {
		return fmt.Errorf("encoding game states: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}
