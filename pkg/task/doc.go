// Package task runs background work on River, backed by the same PostgreSQL
// database as the job store.
//
// Tasks are registered by name. One-off tasks take a JSON payload and are
// enqueued explicitly; periodic tasks carry a five-field cron schedule and
// are fired by River's leader, so only one replica runs each tick.
//
//	m, err := task.NewManager(pool,
//		task.WithLogger(log),
//		task.WithScheduledTask(task.ReapStaleJobs{Jobs: svc, Lease: 30 * time.Minute}),
//	)
//	if err != nil {
//		return err
//	}
//	if err := m.Start(ctx); err != nil {
//		return err
//	}
//	defer m.Stop(context.Background())
//
// Periodic tasks can also be triggered by name:
//
//	err := m.Enqueue(ctx, task.ReapStaleJobsName, nil, task.UniqueFor(time.Minute))
//
// [ReapStaleJobs] and [RequeueFailedJobs] are the built-in maintenance tasks
// for the fuzzing job queue.
package task
