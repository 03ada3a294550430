package task

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	t.Parallel()

	t.Run("with task", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		var got echoPayload
		WithTask[echoPayload](echoTask{got: &got})(cfg)

		_, ok := cfg.registry.get("echo")
		assert.True(t, ok)
		assert.Empty(t, cfg.schedules)
	})

	t.Run("with scheduled task", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		calls := 0
		WithScheduledTask(tickTask{calls: &calls})(cfg)
		WithRunOnStart("tick")(cfg)

		require.Len(t, cfg.schedules, 1)
		assert.Equal(t, schedule{name: "tick", expr: "*/5 * * * *", runOnStart: true}, cfg.schedules[0])
		_, ok := cfg.registry.get("tick")
		assert.True(t, ok)
	})

	t.Run("queues and workers", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		WithQueue("maintenance", 2)(cfg)
		WithQueue("ignored", 0)(cfg)
		WithMaxWorkers(4)(cfg)
		WithMaxWorkers(-1)(cfg)

		assert.Equal(t, map[string]int{"maintenance": 2}, cfg.queues)
		assert.Equal(t, 4, cfg.maxWorkers)
	})

	t.Run("nil logger is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := newConfig()
		l := slog.Default()
		WithLogger(l)(cfg)
		WithLogger(nil)(cfg)
		assert.Same(t, l, cfg.logger)
	})
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		args, opts, err := buildArgs("tick", nil)
		require.NoError(t, err)
		assert.Equal(t, "tick", args.TaskName)
		assert.Nil(t, args.Payload)
		assert.Empty(t, opts.Queue)
		assert.True(t, opts.ScheduledAt.IsZero())
		assert.Zero(t, opts.MaxAttempts)
		assert.False(t, opts.UniqueOpts.ByArgs)
	})

	t.Run("payload and options", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		args, opts, err := buildArgs("echo", echoPayload{Value: "x"},
			InQueue("maintenance"),
			ScheduledIn(time.Minute),
			MaxAttempts(3),
			UniqueFor(time.Hour),
		)
		require.NoError(t, err)
		assert.JSONEq(t, `{"value":"x"}`, string(args.Payload))
		assert.Equal(t, "maintenance", opts.Queue)
		assert.True(t, opts.ScheduledAt.After(before))
		assert.Equal(t, 3, opts.MaxAttempts)
		assert.True(t, opts.UniqueOpts.ByArgs)
		assert.Equal(t, time.Hour, opts.UniqueOpts.ByPeriod)
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, _, err := buildArgs("echo", make(chan int))
		require.Error(t, err)
	})
}

func TestTaskArgs_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fuzzfleet:task", taskArgs{}.Kind())
}

func TestParseCronSchedule(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)

	t.Run("every minute", func(t *testing.T) {
		t.Parallel()

		s, err := parseCronSchedule("* * * * *")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), s.Next(from))
	})

	t.Run("descriptor", func(t *testing.T) {
		t.Parallel()

		s, err := parseCronSchedule("@hourly")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), s.Next(from))
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		for _, expr := range []string{"", "* * *", "61 * * * *", "* * * * * *"} {
			_, err := parseCronSchedule(expr)
			assert.Error(t, err, expr)
		}
	})
}

func TestNewManager_RequiresPool(t *testing.T) {
	t.Parallel()

	m, err := NewManager(nil)
	require.ErrorIs(t, err, ErrPoolRequired)
	assert.Nil(t, m)
}
