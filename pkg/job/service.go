package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fuzzfleet/pkg/logger"
)

const defaultClaimBatch = 32

// errSkip aborts a batch mutation for a job that no longer qualifies.
var errSkip = errors.New("job: skip")

// Observer is notified about lifecycle events after they are committed.
type Observer interface {
	JobCreated(j Job)
	JobTransitioned(from, to Status)
	ClaimConflict()
}

type nopObserver struct{}

func (nopObserver) JobCreated(Job)              {}
func (nopObserver) JobTransitioned(_, _ Status) {}
func (nopObserver) ClaimConflict()              {}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for assign and end times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClaimBatch sets how many queued candidates ClaimNext examines per call.
func WithClaimBatch(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.claimBatch = n
		}
	}
}

// Service is the job API consumed by the transport layer and background tasks.
// It holds no locks; all coordination happens in the Store.
type Service struct {
	store      Store
	targets    TargetLookup
	validator  *Validator
	now        func() time.Time
	logger     *slog.Logger
	observer   Observer
	claimBatch int
}

// NewService wires a store with its target and input lookups.
func NewService(store Store, targets TargetLookup, inputs InputLookup, opts ...Option) *Service {
	s := &Service{
		store:      store,
		targets:    targets,
		validator:  NewValidator(targets, inputs),
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.NewNope(),
		observer:   nopObserver{},
		claimBatch: defaultClaimBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates p and stores a new queued job.
func (s *Service) Create(ctx context.Context, p CreateParams) (Job, error) {
	p, err := s.validator.ValidateCreate(ctx, p)
	if err != nil {
		return Job{}, err
	}

	j, err := s.store.Create(ctx, Job{
		TargetID:            p.TargetID,
		Type:                p.Type,
		Status:              StatusQueued,
		Mutator:             p.Mutator,
		MutatorState:        p.MutatorState,
		InstrumentationType: p.InstrumentationType,
		Driver:              p.Driver,
		SeedFile:            p.SeedFile,
		InputIDs:            p.InputIDs,
	})
	if err != nil {
		return Job{}, err
	}

	s.observer.JobCreated(j)
	s.logger.InfoContext(ctx, "job created",
		slog.Int64("job_id", j.ID),
		slog.Int64("target_id", j.TargetID),
		slog.String("job_type", string(j.Type)),
	)
	return j, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id int64) (Job, error) {
	return s.store.Get(ctx, id)
}

// ListByTarget returns the jobs of an existing target.
// An unknown target is ErrNotFound; a target without jobs yields an empty slice.
func (s *Service) ListByTarget(ctx context.Context, targetID int64) ([]Job, error) {
	ok, err := s.targets.TargetExists(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: target %d", ErrNotFound, targetID)
	}

	jobs, err := s.store.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []Job{}
	}
	return jobs, nil
}

// UpdateStatus moves a job to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to Status) (Job, error) {
	var from Status
	j, err := s.update(ctx, id, func(j *Job) error {
		from = j.Status
		return Transition(j, to, s.now())
	})
	if err != nil {
		s.conflict(ctx, id, to, err)
		return Job{}, err
	}
	s.transitioned(ctx, j, from)
	return j, nil
}

// Claim assigns a queued job to workerID.
func (s *Service) Claim(ctx context.Context, id int64, workerID string) (Job, error) {
	j, err := s.update(ctx, id, func(j *Job) error {
		return Claim(j, workerID, s.now())
	})
	if err != nil {
		s.conflict(ctx, id, StatusAssigned, err)
		return Job{}, err
	}
	s.transitioned(ctx, j, StatusQueued)
	return j, nil
}

// ClaimNext claims the oldest queued job, optionally restricted to a target.
// Candidates lost to concurrent claimers, or finished before the claim
// landed, are skipped.
// Returns ErrNoQueuedJobs when nothing could be claimed.
func (s *Service) ClaimNext(ctx context.Context, workerID string, targetID int64) (Job, error) {
	candidates, err := s.queued(ctx, targetID)
	if err != nil {
		return Job{}, err
	}

	for _, c := range candidates {
		j, err := s.Claim(ctx, c.ID, workerID)
		switch {
		case err == nil:
			return j, nil
		case errors.Is(err, ErrAlreadyAssigned), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrNotFound):
			continue
		default:
			return Job{}, err
		}
	}
	return Job{}, ErrNoQueuedJobs
}

// SetSeedFile replaces the seed file path. Allowed in any status.
func (s *Service) SetSeedFile(ctx context.Context, id int64, path string) (Job, error) {
	return s.update(ctx, id, func(j *Job) error {
		j.SeedFile = path
		return nil
	})
}

// Update applies a status change and a seed file change in one atomic step.
// A status equal to the current one is not treated as a transition.
func (s *Service) Update(ctx context.Context, id int64, p UpdateParams) (Job, error) {
	if p.Status == nil && p.SeedFile == nil {
		return Job{}, &ValidationError{Err: ErrMissingField, Field: "status"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return Job{}, &ValidationError{Err: ErrInvalidStatus, Field: "status", Value: *p.Status}
	}

	var from Status
	j, err := s.update(ctx, id, func(j *Job) error {
		from = j.Status
		if p.Status != nil && *p.Status != j.Status {
			if err := Transition(j, *p.Status, s.now()); err != nil {
				return err
			}
		}
		if p.SeedFile != nil {
			j.SeedFile = *p.SeedFile
		}
		return nil
	})
	if err != nil {
		if p.Status != nil {
			s.conflict(ctx, id, *p.Status, err)
		}
		return Job{}, err
	}
	if j.Status != from {
		s.transitioned(ctx, j, from)
	}
	return j, nil
}

// ReapStale fails assigned or running jobs whose assignment is older than lease.
// It returns the number of jobs failed.
func (s *Service) ReapStale(ctx context.Context, lease time.Duration) (int, error) {
	jobs, err := s.store.ListByStatus(ctx, []Status{StatusAssigned, StatusRunning}, 0)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, c := range jobs {
		if !Stale(c, lease, s.now()) {
			continue
		}
		var from Status
		j, err := s.update(ctx, c.ID, func(j *Job) error {
			now := s.now()
			if !Stale(*j, lease, now) {
				return errSkip
			}
			from = j.Status
			return Transition(j, StatusFailed, now)
		})
		if errors.Is(err, errSkip) || errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return reaped, err
		}
		reaped++
		s.transitioned(ctx, j, from)
		s.logger.WarnContext(ctx, "stale job failed",
			slog.Int64("job_id", j.ID),
			slog.String("worker_id", c.WorkerID),
			slog.Duration("lease", lease),
		)
	}
	return reaped, nil
}

// RequeueFailed requeues failed jobs claimed fewer than maxAttempts times.
// It returns the number of jobs requeued.
func (s *Service) RequeueFailed(ctx context.Context, maxAttempts int) (int, error) {
	if maxAttempts <= 0 {
		return 0, nil
	}

	jobs, err := s.store.ListByStatus(ctx, []Status{StatusFailed}, 0)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, c := range jobs {
		if c.Attempts >= maxAttempts {
			continue
		}
		j, err := s.update(ctx, c.ID, func(j *Job) error {
			if j.Status != StatusFailed || j.Attempts >= maxAttempts {
				return errSkip
			}
			return Transition(j, StatusQueued, s.now())
		})
		if errors.Is(err, errSkip) || errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return requeued, err
		}
		requeued++
		s.transitioned(ctx, j, StatusFailed)
	}
	return requeued, nil
}

func (s *Service) queued(ctx context.Context, targetID int64) ([]Job, error) {
	if targetID == 0 {
		return s.store.ListByStatus(ctx, []Status{StatusQueued}, s.claimBatch)
	}

	jobs, err := s.store.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	out := make([]Job, 0, min(len(jobs), s.claimBatch))
	for _, j := range jobs {
		if j.Status == StatusQueued {
			out = append(out, j)
			if len(out) == s.claimBatch {
				break
			}
		}
	}
	return out, nil
}

// update runs fn through the store, turning a panic inside fn into ErrInternal.
func (s *Service) update(ctx context.Context, id int64, fn MutateFunc) (Job, error) {
	return s.store.Update(ctx, id, func(j *Job) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: panic in mutation: %v", ErrInternal, r)
			}
		}()
		return fn(j)
	})
}

func (s *Service) transitioned(ctx context.Context, j Job, from Status) {
	s.observer.JobTransitioned(from, j.Status)
	s.logger.InfoContext(ctx, "job status changed",
		slog.Int64("job_id", j.ID),
		slog.String("from", string(from)),
		slog.String("to", string(j.Status)),
		slog.String("worker_id", j.WorkerID),
	)
}

func (s *Service) conflict(ctx context.Context, id int64, to Status, err error) {
	if !IsConflict(err) {
		return
	}
	if errors.Is(err, ErrAlreadyAssigned) {
		s.observer.ClaimConflict()
	}
	s.logger.DebugContext(ctx, "job transition rejected",
		slog.Int64("job_id", id),
		slog.String("to", string(to)),
		slog.Any("error", err),
	)
}
