package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masterminds-game/masterminds/internal/game/state"
	"github.com/masterminds-game/masterminds/internal/storage/postgres"
	"github.com/masterminds-game/masterminds/internal/testutil"
)

func makeState(suggesters ...string) *state.GameState {
	st := state.New()
	st.SetWords(map[string]state.Word{
		"anchor": {Word: "anchor", Owner: state.OwnerGreen},
		"bridge": {Word: "bridge", Owner: state.OwnerAssassin, Revealed: true},
	})
	for _, u := range suggesters {
		st.Suggest("anchor", u)
	}
	return st
}

func TestGameStateRepository_SaveAndLoad(t *testing.T) {
	repo := postgres.NewGameStateRepository(testutil.NewPool(t))
	ctx := context.Background()

	st := makeState("Alice", "Bob")
	require.NoError(t, repo.Save(ctx, map[string]*state.GameState{"ABCDEFGH": st}))

	loaded, err := repo.Load(ctx, "ABCDEFGH")
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestGameStateRepository_Load_NotFound(t *testing.T) {
	repo := postgres.NewGameStateRepository(testutil.NewPool(t))

	_, err := repo.Load(context.Background(), "ZZZZZZZZ")
	assert.ErrorIs(t, err, postgres.ErrGameStateNotFound)
}

func TestGameStateRepository_Save_Upserts(t *testing.T) {
	repo := postgres.NewGameStateRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, map[string]*state.GameState{"ROOM": makeState("Alice")}))
	require.NoError(t, repo.Save(ctx, map[string]*state.GameState{"ROOM": makeState("Bob")}))

	loaded, err := repo.Load(ctx, "ROOM")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, loaded.SuggestedWords["anchor"])
}

func TestGameStateRepository_LoadAll(t *testing.T) {
	repo := postgres.NewGameStateRepository(testutil.NewPool(t))
	ctx := context.Background()

	states := map[string]*state.GameState{
		"ROOMAAAA": makeState("Alice"),
		"ROOMBBBB": makeState(),
	}
	require.NoError(t, repo.Save(ctx, states))

	loaded, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, states, loaded)
}

func TestGameStateRepository_LoadAll_Empty(t *testing.T) {
	repo := postgres.NewGameStateRepository(testutil.NewPool(t))

	loaded, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
