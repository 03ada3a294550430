// Package memstore is an in-memory job.Repository for tests and single-node development.
//
// All state sits behind one RWMutex. Update holds the write lock for the
// whole read-modify-write, so updates to different jobs are serialized as
// well. pgstore locks per row and has no such contention.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/fuzzfleet/pkg/job"
)

var _ job.Repository = (*Store)(nil)

// Store keeps jobs, targets and inputs in maps guarded by one RWMutex.
// Every read returns a copy, so callers never share state with the store.
type Store struct {
	jobs    map[int64]job.Job
	targets map[int64]job.Target
	inputs  map[int64]job.Input
	now     func() time.Time

	nextJobID    int64
	nextTargetID int64
	nextInputID  int64

	mu sync.RWMutex
}

// New returns an empty store.
func New() *Store {
	return &Store{
		jobs:    make(map[int64]job.Job),
		targets: make(map[int64]job.Target),
		inputs:  make(map[int64]job.Input),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Get(ctx context.Context, id int64) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, fmt.Errorf("%w: job %d", job.ErrNotFound, id)
	}
	return j.Clone(), nil
}

func (s *Store) ListByTarget(ctx context.Context, targetID int64) ([]job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []job.Job{}
	for _, j := range s.jobs {
		if j.TargetID == targetID {
			out = append(out, j.Clone())
		}
	}
	sortByID(out)
	return out, nil
}

func (s *Store) ListByStatus(ctx context.Context, statuses []job.Status, limit int) ([]job.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []job.Job{}
	for _, j := range s.jobs {
		if slices.Contains(statuses, j.Status) {
			out = append(out, j.Clone())
		}
	}
	sortByID(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, j job.Job) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.targets[j.TargetID]; !ok {
		return job.Job{}, &job.ValidationError{Err: job.ErrUnknownTarget, Field: "target_id", Value: j.TargetID}
	}
	for _, id := range j.InputIDs {
		if _, ok := s.inputs[id]; !ok {
			return job.Job{}, &job.ValidationError{Err: job.ErrUnknownInput, Field: "input_ids", Value: id}
		}
	}

	s.nextJobID++
	now := s.now()
	j = j.Clone()
	j.ID = s.nextJobID
	j.CreatedAt = now
	j.UpdatedAt = now
	s.jobs[j.ID] = j
	return j.Clone(), nil
}

// Update holds the write lock for the whole read-modify-write, so concurrent
// updates of any job are serialized.
func (s *Store) Update(ctx context.Context, id int64, fn job.MutateFunc) (job.Job, error) {
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[id]
	if !ok {
		return job.Job{}, fmt.Errorf("%w: job %d", job.ErrNotFound, id)
	}

	next := current.Clone()
	if err := fn(&next); err != nil {
		return job.Job{}, err
	}
	if err := ctx.Err(); err != nil {
		return job.Job{}, err
	}

	next.ID = current.ID
	next.TargetID = current.TargetID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	s.jobs[id] = next
	return next.Clone(), nil
}

func (s *Store) TargetExists(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.targets[id]
	return ok, nil
}

func (s *Store) InputExists(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inputs[id]
	return ok, nil
}

func (s *Store) CreateTarget(ctx context.Context, name string) (job.Target, error) {
	if err := ctx.Err(); err != nil {
		return job.Target{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.targets {
		if t.Name == name {
			return job.Target{}, fmt.Errorf("%w: %s", job.ErrDuplicateTarget, name)
		}
	}

	s.nextTargetID++
	t := job.Target{ID: s.nextTargetID, Name: name, CreatedAt: s.now()}
	s.targets[t.ID] = t
	return t, nil
}

func (s *Store) GetTarget(ctx context.Context, id int64) (job.Target, error) {
	if err := ctx.Err(); err != nil {
		return job.Target{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.targets[id]
	if !ok {
		return job.Target{}, fmt.Errorf("%w: target %d", job.ErrNotFound, id)
	}
	return t, nil
}

func (s *Store) CreateInput(ctx context.Context, path string) (job.Input, error) {
	if err := ctx.Err(); err != nil {
		return job.Input{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextInputID++
	in := job.Input{ID: s.nextInputID, Path: path, CreatedAt: s.now()}
	s.inputs[in.ID] = in
	return in, nil
}

func (s *Store) GetInput(ctx context.Context, id int64) (job.Input, error) {
	if err := ctx.Err(); err != nil {
		return job.Input{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.inputs[id]
	if !ok {
		return job.Input{}, fmt.Errorf("%w: input %d", job.ErrNotFound, id)
	}
	return in, nil
}

func sortByID(jobs []job.Job) {
	slices.SortFunc(jobs, func(a, b job.Job) int {
		return cmp.Compare(a.ID, b.ID)
	})
}
