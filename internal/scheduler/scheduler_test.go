package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	s := New(context.Background())
	var runs int32
	s.Every("counter", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	time.Sleep(55 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestScheduler_JobErrorDoesNotStopLoop(t *testing.T) {
	s := New(context.Background())
	var runs int32
	s.Every("flaky", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return fmt.Errorf("persistence unavailable")
	})

	time.Sleep(55 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestScheduler_StopReturnsPromptly(t *testing.T) {
	s := New(context.Background())
	s.Every("sleepy", time.Hour, func(context.Context) error {
		return nil
	})

	// Give the loop a moment to enter its wait.
	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not observe cancellation promptly")
	}
}
