package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdog_Fires(t *testing.T) {
	var w watchdog
	fired := make(chan struct{})

	w.Arm(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not fire")
	}
}

func TestWatchdog_CancelPreventsFiring(t *testing.T) {
	var w watchdog
	var fired atomic.Bool

	w.Arm(20*time.Millisecond, func() { fired.Store(true) })
	w.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestWatchdog_RearmReplacesPending(t *testing.T) {
	var w watchdog
	var stale atomic.Bool
	fired := make(chan struct{})

	w.Arm(20*time.Millisecond, func() { stale.Store(true) })
	w.Arm(40*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}
	assert.False(t, stale.Load(), "replaced timer must never fire")
}

func TestWatchdog_CancelWithoutArm(t *testing.T) {
	var w watchdog
	w.Cancel()
}
