package detector

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

func TestBuildArgs(t *testing.T) {
	argv := buildArgs(
		[]string{"python", "detect.py", "--source", "{tiles}", "--out", "{labels}", "--imgsz", "416"},
		"/tmp/tiles", "/tmp/labels",
	)
	assert.Equal(t, []string{"python", "detect.py", "--source", "/tmp/tiles", "--out", "/tmp/labels", "--imgsz", "416"}, argv)
}

func TestExecDetect(t *testing.T) {
	t.Run("successful command", func(t *testing.T) {
		e := &Exec{Command: []string{"true"}}
		assert.NoError(t, e.Detect(context.Background(), "in", "out"))
	})

	t.Run("failing command returns error", func(t *testing.T) {
		e := &Exec{Command: []string{"false"}}
		assert.Error(t, e.Detect(context.Background(), "in", "out"))
	})

	t.Run("empty command rejected", func(t *testing.T) {
		e := &Exec{}
		assert.Error(t, e.Detect(context.Background(), "in", "out"))
	})

	t.Run("cancelled context kills the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := &Exec{Command: []string{"sleep", "10"}}
		assert.Error(t, e.Detect(ctx, "in", "out"))
	})
}

// flakyDetector fails a fixed number of times before succeeding.
type flakyDetector struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyDetector) Detect(_ context.Context, _, _ string) error {
	if f.calls.Add(1) <= f.failures {
		return errors.New("boom")
	}
	return nil
}

func TestRetry(t *testing.T) {
	t.Run("succeeds without retry", func(t *testing.T) {
		inner := &flakyDetector{}
		r := &Retry{Inner: inner, Attempts: 3, Backoff: time.Second}
		require.NoError(t, r.Detect(context.Background(), "in", "out"))
		assert.Equal(t, int32(1), inner.calls.Load())
	})

	t.Run("retries through backoff and recovers", func(t *testing.T) {
		fake := clockwork.NewFakeClock()
		domain.SetClock(fake)
		defer domain.SetClock(nil)

		inner := &flakyDetector{failures: 2}
		r := &Retry{Inner: inner, Attempts: 3, Backoff: time.Second, MaxBackoff: 5 * time.Second}

		done := make(chan error, 1)
		go func() { done <- r.Detect(context.Background(), "in", "out") }()

		// First failure sleeps 1s, second sleeps 2s.
		fake.BlockUntil(1)
		fake.Advance(time.Second)
		fake.BlockUntil(1)
		fake.Advance(2 * time.Second)

		require.NoError(t, <-done)
		assert.Equal(t, int32(3), inner.calls.Load())
	})

	t.Run("exhausted attempts return last error", func(t *testing.T) {
		inner := &flakyDetector{failures: 10}
		r := &Retry{Inner: inner, Attempts: 2} // zero backoff, no sleeping
		err := r.Detect(context.Background(), "in", "out")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		inner := &flakyDetector{failures: 10}
		r := &Retry{Inner: inner, Attempts: 5, Backoff: time.Second}
		assert.Error(t, r.Detect(ctx, "in", "out"))
		assert.Equal(t, int32(0), inner.calls.Load())
	})

	t.Run("zero attempts behaves as one", func(t *testing.T) {
		inner := &flakyDetector{}
		r := &Retry{Inner: inner}
		require.NoError(t, r.Detect(context.Background(), "in", "out"))
		assert.Equal(t, int32(1), inner.calls.Load())
	})
}
