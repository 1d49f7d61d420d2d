package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterminds-game/masterminds/internal/game/state"
)

func TestLoadAll_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.json"))

	states, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestLoadAll_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).LoadAll(context.Background())
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	// The store creates missing parent directories on save.
	path := filepath.Join(t.TempDir(), "data", "games.json")
	s := NewStore(path)
	ctx := context.Background()

	st := state.New()
	st.SetWords(map[string]state.Word{
		"anchor": {Word: "anchor", Owner: state.OwnerGreen},
	})
	st.Suggest("anchor", "Alice")

	require.NoError(t, s.Save(ctx, map[string]*state.GameState{"ABCDEFGH": st}))

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, st, loaded["ABCDEFGH"])

	one, err := s.Load(ctx, "ABCDEFGH")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, one.SuggestedWords["anchor"])

	_, err = s.Load(ctx, "ZZZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_ReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.json")
	s := NewStore(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, map[string]*state.GameState{"OLD": state.New()}))
	require.NoError(t, s.Save(ctx, map[string]*state.GameState{"NEW": state.New()}))

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	_, ok := loaded["NEW"]
	assert.True(t, ok)
}
