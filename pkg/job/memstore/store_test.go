package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fuzzfleet/pkg/job"
	"github.com/dmitrymomot/fuzzfleet/pkg/job/memstore"
)

func seed(t *testing.T) (*memstore.Store, job.Target, job.Input) {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	target, err := s.CreateTarget(ctx, "libxml2")
	require.NoError(t, err)
	in, err := s.CreateInput(ctx, "corpus/0001")
	require.NoError(t, err)
	return s, target, in
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, target, in := seed(t)

	created, err := s.Create(ctx, job.Job{TargetID: target.ID, Status: job.StatusQueued, InputIDs: []int64{in.ID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// Returned values are copies.
	got.InputIDs[0] = 999
	again, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{in.ID}, again.InputIDs)
}

func TestStore_CreateChecksReferences(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, target, _ := seed(t)

	_, err := s.Create(ctx, job.Job{TargetID: 42})
	require.ErrorIs(t, err, job.ErrUnknownTarget)

	_, err = s.Create(ctx, job.Job{TargetID: target.ID, InputIDs: []int64{42}})
	require.ErrorIs(t, err, job.ErrUnknownInput)

	jobs, err := s.ListByTarget(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStore_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("mutation error writes nothing", func(t *testing.T) {
		t.Parallel()
		s, target, _ := seed(t)
		created, err := s.Create(ctx, job.Job{TargetID: target.ID, Status: job.StatusQueued})
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = s.Update(ctx, created.ID, func(j *job.Job) error {
			j.Status = job.StatusRunning
			j.SeedFile = "x"
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusQueued, got.Status)
		assert.Empty(t, got.SeedFile)
	})

	t.Run("id and target are immutable", func(t *testing.T) {
		t.Parallel()
		s, target, _ := seed(t)
		created, err := s.Create(ctx, job.Job{TargetID: target.ID, Status: job.StatusQueued})
		require.NoError(t, err)

		updated, err := s.Update(ctx, created.ID, func(j *job.Job) error {
			j.ID = 100
			j.TargetID = 999
			j.Driver = "qemu"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, target.ID, updated.TargetID)
		assert.Equal(t, "qemu", updated.Driver)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, target.ID, got.TargetID)

		jobs, err := s.ListByTarget(ctx, target.ID)
		require.NoError(t, err)
		assert.Len(t, jobs, 1)
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()
		s, _, _ := seed(t)

		_, err := s.Update(ctx, 7, func(*job.Job) error { return nil })
		require.ErrorIs(t, err, job.ErrNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		s, target, _ := seed(t)
		created, err := s.Create(ctx, job.Job{TargetID: target.ID, Status: job.StatusQueued})
		require.NoError(t, err)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err = s.Update(cctx, created.ID, func(j *job.Job) error {
			j.SeedFile = "x"
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestStore_ListByStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, target, _ := seed(t)

	for _, st := range []job.Status{job.StatusQueued, job.StatusFailed, job.StatusQueued, job.StatusRunning, job.StatusQueued} {
		_, err := s.Create(ctx, job.Job{TargetID: target.ID, Status: st})
		require.NoError(t, err)
	}

	queued, err := s.ListByStatus(ctx, []job.Status{job.StatusQueued}, 2)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, int64(1), queued[0].ID)
	assert.Equal(t, int64(3), queued[1].ID)

	active, err := s.ListByStatus(ctx, []job.Status{job.StatusFailed, job.StatusRunning}, 0)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestStore_Registry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, target, in := seed(t)

	_, err := s.CreateTarget(ctx, target.Name)
	require.ErrorIs(t, err, job.ErrDuplicateTarget)

	got, err := s.GetTarget(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	_, err = s.GetTarget(ctx, 99)
	require.ErrorIs(t, err, job.ErrNotFound)

	gotIn, err := s.GetInput(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "corpus/0001", gotIn.Path)

	ok, err := s.TargetExists(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.InputExists(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}
