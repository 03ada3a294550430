package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/fuzzfleet/pkg/job"
)

func (s *Store) TargetExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM targets WHERE id = $1)`, id)
}

func (s *Store) InputExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM inputs WHERE id = $1)`, id)
}

func (s *Store) CreateTarget(ctx context.Context, name string) (job.Target, error) {
	t := job.Target{Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO targets (name) VALUES ($1) RETURNING id, created_at`, name,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return job.Target{}, storeErr("create target", err)
	}
	return t, nil
}

func (s *Store) GetTarget(ctx context.Context, id int64) (job.Target, error) {
	var t job.Target
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM targets WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return job.Target{}, fmt.Errorf("%w: target %d", job.ErrNotFound, id)
	}
	if err != nil {
		return job.Target{}, storeErr("get target", err)
	}
	return t, nil
}

func (s *Store) CreateInput(ctx context.Context, path string) (job.Input, error) {
	in := job.Input{Path: path}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO inputs (path) VALUES ($1) RETURNING id, created_at`, path,
	).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		return job.Input{}, storeErr("create input", err)
	}
	return in, nil
}

func (s *Store) GetInput(ctx context.Context, id int64) (job.Input, error) {
	var in job.Input
	err := s.pool.QueryRow(ctx,
		`SELECT id, path, created_at FROM inputs WHERE id = $1`, id,
	).Scan(&in.ID, &in.Path, &in.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return job.Input{}, fmt.Errorf("%w: input %d", job.ErrNotFound, id)
	}
	if err != nil {
		return job.Input{}, storeErr("get input", err)
	}
	return in, nil
}

func (s *Store) exists(ctx context.Context, query string, id int64) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, storeErr("lookup", err)
	}
	return ok, nil
}
