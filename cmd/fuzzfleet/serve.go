package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	"github.com/dmitrymomot/fuzzfleet"
	"github.com/dmitrymomot/fuzzfleet/handlers"
	"github.com/dmitrymomot/fuzzfleet/middlewares"
	"github.com/dmitrymomot/fuzzfleet/pkg/cache"
	"github.com/dmitrymomot/fuzzfleet/pkg/db"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
	"github.com/dmitrymomot/fuzzfleet/pkg/job/memstore"
	"github.com/dmitrymomot/fuzzfleet/pkg/job/pgstore"
	"github.com/dmitrymomot/fuzzfleet/pkg/logger"
	"github.com/dmitrymomot/fuzzfleet/pkg/metrics"
	"github.com/dmitrymomot/fuzzfleet/pkg/redis"
	"github.com/dmitrymomot/fuzzfleet/pkg/storage"
	"github.com/dmitrymomot/fuzzfleet/pkg/task"
)

func serveAction(ctx context.Context, cmd *cli.Command) (err error) {
	cfg, err := loadConfig(cmd.String("env"))
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Log, middlewares.RequestIDExtractor(), middlewares.WorkerIDExtractor())
	defer logger.Flush(2 * time.Second)

	collector := metrics.New(metrics.WithRuntimeMetrics())

	var (
		checks    []fuzzfleet.HealthOption
		startup   []fuzzfleet.RunOption
		shutdowns []fuzzfleet.RunOption
	)

	// Resources opened below are released here if startup fails. Once the
	// app runs, its shutdown hooks own them.
	var undo cleanup
	defer func() {
		if err != nil {
			undo.run()
		}
	}()

	repo, pool, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		undo.add(pool.Close)
		checks = append(checks, fuzzfleet.WithReadinessCheck("postgres", db.Healthcheck(pool)))
	}

	lookups, lookupRes, err := openLookupCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	undo.add(func() { _ = lookupRes.shutdown(context.Background()) })
	if cfg.Redis.Enabled() {
		checks = append(checks, fuzzfleet.WithReadinessCheck("redis", lookupRes.health))
	}
	shutdowns = append(shutdowns, fuzzfleet.ShutdownHook(lookupRes.shutdown))

	svc := job.NewService(repo,
		job.CachedTargets(repo, lookups, cfg.Jobs.LookupCacheTTL),
		job.CachedInputs(repo, lookups, cfg.Jobs.LookupCacheTTL),
		job.WithLogger(log),
		job.WithObserver(collector),
		job.WithClaimBatch(cfg.Jobs.ClaimBatch),
	)

	var jobsOpts []handlers.JobsOption
	if cfg.Storage.Enabled() {
		seeds, err := storage.New(cfg.Storage)
		if err != nil {
			return fmt.Errorf("seed storage: %w", err)
		}
		jobsOpts = append(jobsOpts, handlers.WithSeedStorage(seeds))
		checks = append(checks, fuzzfleet.WithOptionalReadinessCheck("storage", storage.Healthcheck(seeds)))
		log.InfoContext(ctx, "seed storage enabled", slog.String("bucket", cfg.Storage.Bucket))
	}

	if pool != nil {
		tasks, err := newTaskManager(pool, svc, cfg, log)
		if err != nil {
			return err
		}
		checks = append(checks, fuzzfleet.WithReadinessCheck("tasks", task.Healthcheck(tasks)))
		startup = append(startup, fuzzfleet.StartupHook(tasks.StartFunc()))
		shutdowns = append(shutdowns, fuzzfleet.ShutdownHook(tasks.Shutdown()))
	} else {
		log.WarnContext(ctx, "background maintenance disabled: stale jobs are not reaped without PostgreSQL")
	}

	app := fuzzfleet.New(
		fuzzfleet.WithLogger(log),
		fuzzfleet.WithErrorHandler(handlers.ErrorHandler),
		fuzzfleet.WithNotFoundHandler(handlers.NotFound),
		fuzzfleet.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		fuzzfleet.WithMiddleware(
			middlewares.RequestID(),
			middlewares.WorkerID(),
			middlewares.Metrics(collector),
			middlewares.AccessLog(),
			middlewares.Recover(),
			middlewares.Timeout(cfg.HTTP.RequestTimeout),
		),
		fuzzfleet.WithHandlers(
			handlers.NewJobs(svc, jobsOpts...),
			handlers.NewRegistry(repo),
		),
		fuzzfleet.WithMount(cfg.HTTP.MetricsPath, collector.Handler()),
		fuzzfleet.WithHealthChecks(checks...),
	)

	opts := []fuzzfleet.RunOption{
		fuzzfleet.Logger(log),
		fuzzfleet.WithContext(ctx),
		fuzzfleet.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	}
	opts = append(opts, startup...)
	opts = append(opts, shutdowns...)
	if pool != nil {
		// Hooks run in order: the pool closes after the task manager stops.
		opts = append(opts, fuzzfleet.ShutdownHook(db.Shutdown(pool)))
	}

	undo = nil
	return app.Run(cfg.HTTP.Addr, opts...)
}

// openRepository connects to PostgreSQL when DATABASE_URL is set and falls
// back to the in-memory store otherwise. The returned pool is nil for memstore.
func openRepository(ctx context.Context, cfg Config, log *slog.Logger) (job.Repository, *pgxpool.Pool, error) {
	if !cfg.DB.Enabled() {
		log.WarnContext(ctx, "DATABASE_URL is not set, using the in-memory store")
		return memstore.New(), nil, nil
	}

	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return nil, nil, err
	}
	if err := pgstore.Migrate(ctx, pool, cfg.DB.MigrationsTable, log); err != nil {
		pool.Close()
		return nil, nil, err
	}
	if cfg.Tasks.AutoMigrate {
		if err := task.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pgstore.New(pool), pool, nil
}

type lookupCache struct {
	health   func(context.Context) error
	shutdown func(context.Context) error
}

// openLookupCache returns the cache used for target and input existence
// checks: Redis when REDIS_URL is set, process memory otherwise.
func openLookupCache(ctx context.Context, cfg Config, log *slog.Logger) (cache.Cache[bool], lookupCache, error) {
	if !cfg.Redis.Enabled() {
		mem := cache.NewMemory[bool](
			cache.WithMaxEntries(cfg.Jobs.LookupCacheMax),
			cache.WithDefaultTTL(cfg.Jobs.LookupCacheTTL),
		)
		return mem, lookupCache{
			shutdown: func(context.Context) error { return mem.Close() },
		}, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, lookupCache{}, err
	}
	log.InfoContext(ctx, "using redis for lookup cache")

	c := cache.NewRedis[bool](client, cache.JSON[bool]{},
		cache.WithPrefix("fuzzfleet:lookup:"),
		cache.WithRedisDefaultTTL(cfg.Jobs.LookupCacheTTL),
	)
	return c, lookupCache{
		health:   redis.Healthcheck(client),
		shutdown: redis.Shutdown(client),
	}, nil
}

// cleanup releases startup resources in reverse order of acquisition.
type cleanup []func()

func (c *cleanup) add(fn func()) {
	*c = append(*c, fn)
}

func (c cleanup) run() {
	for _, fn := range slices.Backward(c) {
		fn()
	}
}

func newTaskManager(pool *pgxpool.Pool, svc *job.Service, cfg Config, log *slog.Logger) (*task.Manager, error) {
	opts := []task.Option{
		task.WithLogger(log),
		task.WithMaxWorkers(cfg.Tasks.Workers),
		task.WithScheduledTask(task.ReapStaleJobs{
			Jobs:   svc,
			Logger: log,
			Cron:   cfg.Jobs.ReapSchedule,
			Lease:  cfg.Jobs.StaleLease,
		}),
	}
	if cfg.Jobs.MaxAttempts > 0 {
		opts = append(opts, task.WithScheduledTask(task.RequeueFailedJobs{
			Jobs:        svc,
			Logger:      log,
			Cron:        cfg.Jobs.RequeueSchedule,
			MaxAttempts: cfg.Jobs.MaxAttempts,
		}))
	}
	if cfg.Tasks.RunOnStart {
		opts = append(opts, task.WithRunOnStart(task.ReapStaleJobsName))
	}

	m, err := task.NewManager(pool, opts...)
	if err != nil {
		return nil, fmt.Errorf("task manager: %w", err)
	}
	return m, nil
}
