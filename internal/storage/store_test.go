package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/masterminds-game/masterminds/internal/game/state"
	"github.com/masterminds-game/masterminds/internal/storage/file"
)

// fakeBackend is a scriptable in-memory Backend.
type fakeBackend struct {
	states  map[string]*state.GameState
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeBackend) Load(ctx context.Context, roomCode string) (*state.GameState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	st, ok := f.states[roomCode]
	if !ok {
		return nil, errors.New("not found")
	}
	return st, nil
}

func (f *fakeBackend) LoadAll(ctx context.Context) (map[string]*state.GameState, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.states, nil
}

func (f *fakeBackend) Save(ctx context.Context, states map[string]*state.GameState) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.states = states
	return nil
}

func oneRoom(code string) map[string]*state.GameState {
	return map[string]*state.GameState{code: state.New()}
}

func TestLoadAll_PrefersRemote(t *testing.T) {
	remote := &fakeBackend{states: oneRoom("REMOTE")}
	local := &fakeBackend{states: oneRoom("LOCAL")}
	tiered := NewTiered(remote, local, zaptest.NewLogger(t))

	states := tiered.LoadAll(context.Background())
	_, ok := states["REMOTE"]
	assert.True(t, ok)
}

func TestLoadAll_FallsBackWhenRemoteFails(t *testing.T) {
	remote := &fakeBackend{loadErr: errors.New("connection refused")}
	local := &fakeBackend{states: oneRoom("LOCAL")}
	tiered := NewTiered(remote, local, zaptest.NewLogger(t))

	states := tiered.LoadAll(context.Background())
	_, ok := states["LOCAL"]
	assert.True(t, ok)
}

func TestLoadAll_FallsBackWhenRemoteEmpty(t *testing.T) {
	remote := &fakeBackend{states: map[string]*state.GameState{}}
	local := &fakeBackend{states: oneRoom("LOCAL")}
	tiered := NewTiered(remote, local, zaptest.NewLogger(t))

	states := tiered.LoadAll(context.Background())
	_, ok := states["LOCAL"]
	assert.True(t, ok)
}

func TestLoadAll_NeverFailsCaller(t *testing.T) {
	remote := &fakeBackend{loadErr: errors.New("remote down")}
	local := &fakeBackend{loadErr: errors.New("disk gone")}
	tiered := NewTiered(remote, local, zaptest.NewLogger(t))

	states := tiered.LoadAll(context.Background())
	require.NotNil(t, states)
	assert.Empty(t, states)
}

func TestLoadAll_NoRemoteConfigured(t *testing.T) {
	local := &fakeBackend{states: oneRoom("LOCAL")}
	tiered := NewTiered(nil, local, zaptest.NewLogger(t))

	states := tiered.LoadAll(context.Background())
	_, ok := states["LOCAL"]
	assert.True(t, ok)
}

func TestSave_RemoteFailureDoesNotBlockLocal(t *testing.T) {
	remote := &fakeBackend{saveErr: errors.New("remote down")}
	local := &fakeBackend{}
	tiered := NewTiered(remote, local, zaptest.NewLogger(t))

	err := tiered.Save(context.Background(), oneRoom("ROOM"))
	require.NoError(t, err)
	assert.Equal(t, 1, remote.saves, "remote write is attempted")
	assert.Equal(t, 1, local.saves, "local write always completes")
}

func TestSave_LocalFailureIsReported(t *testing.T) {
	local := &fakeBackend{saveErr: errors.New("disk full")}
	tiered := NewTiered(nil, local, zaptest.NewLogger(t))

	err := tiered.Save(context.Background(), oneRoom("ROOM"))
	assert.Error(t, err)
}

func TestLoad_FallsBackPerRoom(t *testing.T) {
	remote := &fakeBackend{loadErr: errors.New("remote down")}
	local := &fakeBackend{states: oneRoom("ROOM")}
	tiered := NewTiered(remote, local, zaptest.NewLogger(t))

	_, ok := tiered.Load(context.Background(), "ROOM")
	assert.True(t, ok)

	_, ok = tiered.Load(context.Background(), "MISSING")
	assert.False(t, ok)
}

func TestTiered_WithFileBackend(t *testing.T) {
	local := file.NewStore(filepath.Join(t.TempDir(), "games.json"))
	tiered := NewTiered(nil, local, zaptest.NewLogger(t))
	ctx := context.Background()

	st := state.New()
	st.Suggest("anchor", "Alice")
	require.NoError(t, tiered.Save(ctx, map[string]*state.GameState{"ROOM": st}))

	states := tiered.LoadAll(ctx)
	require.Len(t, states, 1)
	assert.Equal(t, []string{"Alice"}, states["ROOM"].SuggestedWords["anchor"])
}
