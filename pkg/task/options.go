package task

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
}

func newConfig() *config {
	return &config{
		registry: newRegistry(),
		queues:   make(map[string]int),
	}
}

type schedule struct {
	name       string
	expr       string
	runOnStart bool
}

// Option configures the Manager.
type Option func(*config)

// WithTask registers a task that takes a JSON payload of type P.
//
//	type Notify struct{}
//	func (Notify) Name() string { return "notify" }
//	func (Notify) Handle(ctx context.Context, p NotifyPayload) error { ... }
//
//	task.WithTask[NotifyPayload](Notify{})
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](t T) Option {
	return func(c *config) {
		c.registry.register(t.Name(), typed[P, T]{task: t})
	}
}

// WithScheduledTask registers a periodic task. Schedule returns a five-field
// cron expression (minute hour day month weekday). The task can also be
// enqueued by name to run it immediately.
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](t T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{name: t.Name(), expr: t.Schedule()})
		c.registry.register(t.Name(), periodic(t.Handle))
	}
}

// WithRunOnStart makes the named periodic tasks also run once at startup.
func WithRunOnStart(names ...string) Option {
	return func(c *config) {
		for i := range c.schedules {
			for _, n := range names {
				if c.schedules[i].name == n {
					c.schedules[i].runOnStart = true
				}
			}
		}
	}
}

// WithQueue adds a named queue with its own worker count.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger. A no-op logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Default: 10.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
