package server

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/masterminds-game/masterminds/internal/game/random"
	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/storage"
	"github.com/masterminds-game/masterminds/internal/storage/file"
)

// stopRecorder captures the order services were stopped in.
type stopRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *stopRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *stopRecorder) stopped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// blockingService blocks in Start until stopped, like the HTTP server.
func blockingService(r *stopRecorder, name string) *FuncService {
	quit := make(chan struct{})
	return &FuncService{
		StartFn: func() error {
			<-quit
			return nil
		},
		StopFn: func() {
			r.record(name)
			close(quit)
		},
	}
}

func TestLifecycle_StopsServicesInReverseOrder(t *testing.T) {
	logger := zaptest.NewLogger(t)
	rec := &stopRecorder{}

	registry := room.NewRegistry(room.Config{
		RoomCapacity:      4,
		RoomCodeLength:    8,
		MaxNicknameLength: 12,
	}, random.NewCryptoSource(), stubGenerator{}, logger, nil)
	store := storage.NewTiered(nil, file.NewStore(filepath.Join(t.TempDir(), "games.json")), logger)
	hub := NewHub(registry, store, logger, 5*time.Second)

	lc := NewLifecycle(logger)
	lc.Add("hub", &FuncService{
		StartFn: hub.Start,
		StopFn: func() {
			rec.record("hub")
			hub.Stop()
		},
	})
	lc.Add("http", blockingService(rec, "http"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	// Give the services a moment to start before shutting down.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	require.Equal(t, []string{"http", "hub"}, rec.stopped())
}

func TestLifecycle_ServiceErrorTriggersShutdown(t *testing.T) {
	logger := zaptest.NewLogger(t)
	rec := &stopRecorder{}

	lc := NewLifecycle(logger)
	lc.Add("healthy", blockingService(rec, "healthy"))
	lc.Add("broken", &FuncService{
		StartFn: func() error { return errors.New("listen failed") },
		StopFn:  func() { rec.record("broken") },
	})

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service failure")
	}

	assert.Contains(t, rec.stopped(), "healthy")
}

func TestFuncService_PeriodicLoopExitsOnStop(t *testing.T) {
	var ticks atomic.Int32
	quit := make(chan struct{})

	svc := &FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(10 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ticks.Add(1)
				case <-quit:
					return nil
				}
			}
		},
		StopFn: func() { close(quit) },
	}

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()

	assert.Eventually(t, func() bool { return ticks.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
	svc.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("periodic loop did not exit after Stop")
	}

	// No further ticks once the loop has exited.
	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, ticks.Load())
}
