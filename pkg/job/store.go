package job

import "context"

// MutateFunc changes a job in place. Returning an error aborts the update
// and nothing is written.
type MutateFunc func(*Job) error

// Store persists jobs.
//
// Update must be atomic per job: the mutation runs against the latest
// committed record, and two concurrent updates of the same job never
// interleave. Infrastructure failures are reported as ErrStoreUnavailable.
type Store interface {
	// Get returns the job or ErrNotFound.
	Get(ctx context.Context, id int64) (Job, error)

	// ListByTarget returns every job of a target ordered by id.
	// It does not check that the target exists.
	ListByTarget(ctx context.Context, targetID int64) ([]Job, error)

	// ListByStatus returns up to limit jobs in any of the given statuses,
	// oldest first. A limit <= 0 means no limit.
	ListByStatus(ctx context.Context, statuses []Status, limit int) ([]Job, error)

	// Create assigns an id and persists the job.
	Create(ctx context.Context, j Job) (Job, error)

	// Update applies fn atomically and returns the stored result.
	Update(ctx context.Context, id int64, fn MutateFunc) (Job, error)
}

// TargetLookup answers whether a target exists.
type TargetLookup interface {
	TargetExists(ctx context.Context, id int64) (bool, error)
}

// InputLookup answers whether an input exists.
type InputLookup interface {
	InputExists(ctx context.Context, id int64) (bool, error)
}

// Registry manages the targets and inputs jobs refer to.
type Registry interface {
	TargetLookup
	InputLookup
	CreateTarget(ctx context.Context, name string) (Target, error)
	GetTarget(ctx context.Context, id int64) (Target, error)
	CreateInput(ctx context.Context, path string) (Input, error)
	GetInput(ctx context.Context, id int64) (Input, error)
}

// Repository is a store that also carries the registry.
// Both memstore and pgstore implement it.
type Repository interface {
	Store
	Registry
}
