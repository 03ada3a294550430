// Package job tracks fuzzing jobs through their lifecycle and coordinates
// which worker is doing what.
//
// # Lifecycle
//
// A job is created queued and moves through the following states:
//
//	queued ──claim──▶ assigned ──start──▶ running ──▶ completed
//	  ▲                  │                  │
//	  │                  └──────fail────────┴──▶ failed
//	  └───────────────────requeue──────────────────┘
//
// Claiming sets assign_time and records the worker. Completion and failure
// set end_time. Requeue clears both timestamps and the worker. Any other
// change is rejected with [ErrInvalidTransition], including claims on
// completed or failed jobs; claiming an assigned or running job is rejected
// with [ErrAlreadyAssigned]. Rejected changes never write.
//
// [Transition] and [Claim] are pure functions over a [Job]. They are run
// inside [Store.Update], which is atomic per job, so two workers racing to
// claim the same job always produce exactly one winner.
//
// # Service
//
// [Service] is the API used by the HTTP handlers and background tasks:
//
//	store := memstore.New()
//	svc := job.NewService(store, store, store, job.WithLogger(log))
//
//	j, err := svc.Create(ctx, job.CreateParams{TargetID: 1, InputIDs: []int64{3, 7}})
//	j, err = svc.Claim(ctx, j.ID, "worker-1")
//	j, err = svc.UpdateStatus(ctx, j.ID, job.StatusRunning)
//	j, err = svc.UpdateStatus(ctx, j.ID, job.StatusCompleted)
//
// Create runs the [Validator] first: a zero target id is [ErrMissingField],
// an unknown target is [ErrUnknownTarget], an unknown input is
// [ErrUnknownInput]. Nothing is written when validation fails.
//
// # Errors
//
// Every operation returns a job or one of the sentinel errors in this
// package, possibly wrapped. Use [errors.Is] to classify them, or the
// [IsValidation] and [IsConflict] helpers. Storage failures are
// [ErrStoreUnavailable] and are never retried here. Panics inside a
// mutation surface as [ErrInternal].
//
// # Stores
//
// Two implementations of [Repository] ship with the module: memstore for
// tests and single-node use, and pgstore for PostgreSQL. [CachedTargets]
// and [CachedInputs] put a cache in front of the existence lookups.
package job
