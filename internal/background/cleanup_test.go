package background

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetentionStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
}

func (s *stubRetentionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.deleted, nil
}

func (s *stubRetentionStore) calls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.cutoffs...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetentionManager_DisabledWhenMaxAgeZero(t *testing.T) {
	store := &stubRetentionStore{}
	rm := NewRetentionManager(store, testLogger(), 0, time.Hour)

	assert.False(t, rm.Enabled())

	// Start must return immediately without touching the store
	done := make(chan struct{})
	go func() {
		rm.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return for a disabled manager")
	}
	assert.Empty(t, store.calls())
}

func TestRetentionManager_RunsImmediatelyWithCorrectCutoff(t *testing.T) {
	store := &stubRetentionStore{deleted: 3}
	rm := NewRetentionManager(store, testLogger(), 30*24*time.Hour, time.Hour)

	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rm.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rm.Start(ctx)
		close(done)
	}()

	// The startup run happens before the first tick
	require.Eventually(t, func() bool {
		return len(store.calls()) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	cutoff := store.calls()[0]
	assert.Equal(t, fixed.Add(-30*24*time.Hour), cutoff)
}

func TestRetentionManager_Stop(t *testing.T) {
	store := &stubRetentionStore{}
	rm := NewRetentionManager(store, testLogger(), time.Hour, time.Hour)

	done := make(chan struct{})
	go func() {
		rm.Start(context.Background())
		close(done)
	}()

	// Allow the startup run to fire, then stop
	require.Eventually(t, func() bool {
		return len(store.calls()) >= 1
	}, time.Second, 10*time.Millisecond)

	rm.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("retention manager did not stop")
	}
}
