package detector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Retry wraps a Detector with the timeout and bounded-retry policy the
// orchestration layer owns. The detector is the one long-running external
// step in the pipeline; everything else is local computation and gets no
// retry semantics.
type Retry struct {
	Inner      Detector
	Attempts   int           // total tries; values < 1 behave as 1
	Timeout    time.Duration // per-attempt; 0 means no deadline
	Backoff    time.Duration // sleep before attempt n+1, doubling, capped at MaxBackoff
	MaxBackoff time.Duration
	Logger     *slog.Logger
}

// Detect runs the wrapped detector, retrying failed attempts with
// exponential backoff. It returns the last attempt's error when all
// attempts fail, and stops early when ctx is cancelled.
func (r *Retry) Detect(ctx context.Context, tilesDir, labelsDir string) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = r.runOnce(ctx, tilesDir, labelsDir)
		if lastErr == nil {
			return nil
		}
		if r.Logger != nil {
			r.Logger.Warn("detector attempt failed",
				"attempt", attempt, "of", attempts, "error", lastErr)
		}
		if attempt == attempts {
			break
		}
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, r.MaxBackoff)
	}
	return fmt.Errorf("detector failed after %d attempts: %w", attempts, lastErr)
}

func (r *Retry) runOnce(ctx context.Context, tilesDir, labelsDir string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return r.Inner.Detect(ctx, tilesDir, labelsDir)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if maxBackoff > 0 && next > maxBackoff {
		return maxBackoff
	}
	return next
}

// sleep waits on the domain clock so tests can advance time. Returns
// false when the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-domain.Clock().After(d):
		return true
	}
}
