package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/tbrandon/loginhistory/internal/metrics"
)

// RetentionStore is the slice of the history repository retention needs
type RetentionStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionManager periodically removes login history rows older than the
// configured maximum age. A zero maxAge disables it entirely.
type RetentionManager struct {
	history  RetentionStore
	logger   *slog.Logger
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewRetentionManager creates a new retention manager
func NewRetentionManager(
	history RetentionStore,
	logger *slog.Logger,
	maxAge time.Duration,
	interval time.Duration,
) *RetentionManager {
	return &RetentionManager{
		history:  history,
		logger:   logger,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Enabled reports whether retention is configured at all
func (rm *RetentionManager) Enabled() bool {
	return rm.maxAge > 0 && rm.interval > 0
}

// Start begins the periodic retention task. It returns immediately when
// retention is disabled.
func (rm *RetentionManager) Start(ctx context.Context) {
	if !rm.Enabled() {
		rm.logger.Info("history retention disabled")
		return
	}

	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	rm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			rm.runCleanup(ctx)
		case <-rm.stopCh:
			rm.logger.Info("retention manager stopped")
			return
		case <-ctx.Done():
			rm.logger.Info("retention manager context cancelled")
			return
		}
	}
}

// runCleanup removes rows past the retention cutoff
func (rm *RetentionManager) runCleanup(ctx context.Context) {
	cutoff := rm.now().Add(-rm.maxAge)

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := rm.history.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		rm.logger.Error("history retention cleanup failed", slog.Any("error", err))
		metrics.CleanupRuns.WithLabelValues("error").Inc()
		return
	}

	metrics.CleanupRuns.WithLabelValues("success").Inc()
	if rowsDeleted > 0 {
		metrics.RowsDeleted.WithLabelValues("retention").Add(float64(rowsDeleted))
		rm.logger.Info("history retention cleanup completed",
			slog.Int64("rows_deleted", rowsDeleted),
			slog.Time("cutoff", cutoff),
		)
	}
}

// Stop signals the retention manager to stop
func (rm *RetentionManager) Stop() {
	close(rm.stopCh)
}
