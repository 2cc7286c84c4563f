package scheduler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"panelsync/internal/scheduler"
)

func noop(context.Context) error { return nil }

func TestNew(t *testing.T) {
	t.Run("accepts five and six field expressions", func(t *testing.T) {
		for _, expr := range []string{"0 6 * * *", "0 0 6 * * *", "@daily"} {
			_, err := scheduler.New(expr, "Asia/Singapore", noop)
			assert.NoError(t, err, expr)
		}
	})

	t.Run("rejects bad expressions", func(t *testing.T) {
		_, err := scheduler.New("not a cron", "Asia/Singapore", noop)
		assert.ErrorContains(t, err, "invalid cron expression")
	})

	t.Run("rejects unknown timezones", func(t *testing.T) {
		_, err := scheduler.New("0 6 * * *", "Nowhere/Special", noop)
		assert.ErrorContains(t, err, "invalid timezone")
	})
}

func TestTimezoneScheduling(t *testing.T) {
	sg, err := scheduler.New("0 30 19 * * *", "Asia/Singapore", noop)
	require.NoError(t, err)
	chi, err := scheduler.New("0 30 19 * * *", "America/Chicago", noop)
	require.NoError(t, err)

	sgNext := sg.Next()
	chiNext := chi.Next()

	assert.Equal(t, 30, sgNext.Minute())
	assert.Equal(t, 11, sgNext.UTC().Hour())
	assert.Equal(t, 30, chiNext.Minute())
	assert.NotEqual(t, chiNext.UTC().Hour(), sgNext.UTC().Hour())
}

func TestJobScheduler_Start(t *testing.T) {
	t.Run("runs on every tick", func(t *testing.T) {
		var runs atomic.Int32
		s, err := scheduler.New("* * * * * *", "UTC", func(ctx context.Context) error {
			runs.Add(1)
			return nil
		})
		require.NoError(t, err)

		require.NoError(t, s.Start(context.Background()))
		defer s.Stop()

		assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("skips ticks while a run is in progress", func(t *testing.T) {
		var running, maxRunning, runs atomic.Int32
		s, err := scheduler.New("* * * * * *", "UTC", func(ctx context.Context) error {
			n := running.Add(1)
			defer running.Add(-1)
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			runs.Add(1)

			select {
			case <-ctx.Done():
			case <-time.After(2500 * time.Millisecond):
			}
			return errors.New("slow run")
		})
		require.NoError(t, err)

		require.NoError(t, s.Start(context.Background()))
		time.Sleep(3500 * time.Millisecond)
		s.Stop()

		assert.GreaterOrEqual(t, runs.Load(), int32(1))
		assert.Equal(t, int32(1), maxRunning.Load())
	})

	t.Run("stop cancels the run context", func(t *testing.T) {
		started := make(chan struct{})
		var cancelled atomic.Bool
		s, err := scheduler.New("* * * * * *", "UTC", func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		})
		require.NoError(t, err)

		require.NoError(t, s.Start(context.Background()))
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("job never started")
		}

		s.Stop()
		assert.True(t, cancelled.Load())
	})

	t.Run("cancelled context is refused", func(t *testing.T) {
		s, err := scheduler.New("0 6 * * *", "UTC", noop)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, s.Start(ctx), context.Canceled)
	})
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := scheduler.NewCronLogger(zerolog.New(&buf))

	logger.Error(errors.New("boom"), "panic", "entry", 1, "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "panic", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "cron", entry["component"])
	assert.EqualValues(t, 1, entry["entry"])
	assert.Contains(t, entry, "dangling")
}
