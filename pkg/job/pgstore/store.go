// Package pgstore is the PostgreSQL job.Repository.
//
// Jobs live in the jobs table with their input references in job_inputs.
// Update runs inside a transaction that locks the job row with
// SELECT ... FOR UPDATE, so concurrent claims of the same job are
// serialized by the database and exactly one of them sees a queued job.
//
// The schema ships as embedded goose migrations; apply it with Migrate
// before use.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/fuzzfleet/pkg/db"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies pending schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string, log *slog.Logger) error {
	return db.Migrate(ctx, pool, Migrations(), table, log)
}

var _ job.Repository = (*Store)(nil)

// Store implements job.Repository on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const jobColumns = `id, target_id, job_type, status, mutator, mutator_state,
	instrumentation_type, driver, seed_file, worker_id, attempts,
	assign_time, end_time, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id int64) (job.Job, error) {
	j, err := getJob(ctx, s.pool, id, false)
	if err != nil {
		return job.Job{}, storeErr("get job", err)
	}
	return j, nil
}

func (s *Store) ListByTarget(ctx context.Context, targetID int64) ([]job.Job, error) {
	jobs, err := queryJobs(ctx, s.pool,
		`SELECT `+jobColumns+` FROM jobs WHERE target_id = $1 ORDER BY id`, targetID)
	if err != nil {
		return nil, storeErr("list jobs by target", err)
	}
	return jobs, nil
}

func (s *Store) ListByStatus(ctx context.Context, statuses []job.Status, limit int) ([]job.Job, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ANY($1) ORDER BY id`
	args := []any{names}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	jobs, err := queryJobs(ctx, s.pool, query, args...)
	if err != nil {
		return nil, storeErr("list jobs by status", err)
	}
	return jobs, nil
}

// Create inserts the job and its input references in one transaction.
func (s *Store) Create(ctx context.Context, j job.Job) (job.Job, error) {
	out, err := db.Transact(ctx, s.pool, func(tx pgx.Tx) (job.Job, error) {
		created := j.Clone()
		err := tx.QueryRow(ctx, `
			INSERT INTO jobs (target_id, job_type, status, mutator, mutator_state,
				instrumentation_type, driver, seed_file, worker_id, attempts, assign_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at, updated_at`,
			j.TargetID, j.Type, j.Status, j.Mutator, j.MutatorState,
			j.InstrumentationType, j.Driver, j.SeedFile, j.WorkerID, j.Attempts,
			j.AssignTime, j.EndTime,
		).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return job.Job{}, err
		}

		if err := insertInputs(ctx, tx, created.ID, created.InputIDs); err != nil {
			return job.Job{}, err
		}
		return created, nil
	})
	if err != nil {
		return job.Job{}, storeErr("create job", err)
	}
	return out, nil
}

// Update locks the job row for the duration of fn.
// Errors returned by fn are passed through untouched.
func (s *Store) Update(ctx context.Context, id int64, fn job.MutateFunc) (job.Job, error) {
	var mutErr error
	out, err := db.Transact(ctx, s.pool, func(tx pgx.Tx) (job.Job, error) {
		current, err := getJob(ctx, tx, id, true)
		if err != nil {
			return job.Job{}, err
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			mutErr = err
			return job.Job{}, err
		}

		err = tx.QueryRow(ctx, `
			UPDATE jobs SET
				job_type = $2, status = $3, mutator = $4, mutator_state = $5,
				instrumentation_type = $6, driver = $7, seed_file = $8, worker_id = $9,
				attempts = $10, assign_time = $11, end_time = $12, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`,
			id, next.Type, next.Status, next.Mutator, next.MutatorState,
			next.InstrumentationType, next.Driver, next.SeedFile, next.WorkerID,
			next.Attempts, next.AssignTime, next.EndTime,
		).Scan(&next.UpdatedAt)
		if err != nil {
			return job.Job{}, err
		}

		if !slices.Equal(current.InputIDs, next.InputIDs) {
			if _, err := tx.Exec(ctx, `DELETE FROM job_inputs WHERE job_id = $1`, id); err != nil {
				return job.Job{}, err
			}
			if err := insertInputs(ctx, tx, id, next.InputIDs); err != nil {
				return job.Job{}, err
			}
		}

		next.ID = current.ID
		next.TargetID = current.TargetID
		next.CreatedAt = current.CreatedAt
		return next, nil
	})
	if mutErr != nil {
		return job.Job{}, mutErr
	}
	if err != nil {
		return job.Job{}, storeErr("update job", err)
	}
	return out, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getJob(ctx context.Context, q querier, id int64, lock bool) (job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	j, err := scanJob(q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return job.Job{}, fmt.Errorf("%w: job %d", job.ErrNotFound, id)
	}
	if err != nil {
		return job.Job{}, err
	}

	inputs, err := loadInputs(ctx, q, []int64{id})
	if err != nil {
		return job.Job{}, err
	}
	j.InputIDs = inputs[id]
	if j.InputIDs == nil {
		j.InputIDs = []int64{}
	}
	return j, nil
}

func queryJobs(ctx context.Context, q querier, query string, args ...any) ([]job.Job, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (job.Job, error) {
		return scanJob(row)
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return []job.Job{}, nil
	}

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	inputs, err := loadInputs(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].InputIDs = inputs[jobs[i].ID]
		if jobs[i].InputIDs == nil {
			jobs[i].InputIDs = []int64{}
		}
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	err := row.Scan(
		&j.ID, &j.TargetID, &j.Type, &j.Status, &j.Mutator, &j.MutatorState,
		&j.InstrumentationType, &j.Driver, &j.SeedFile, &j.WorkerID, &j.Attempts,
		&j.AssignTime, &j.EndTime, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

func loadInputs(ctx context.Context, q querier, jobIDs []int64) (map[int64][]int64, error) {
	rows, err := q.Query(ctx,
		`SELECT job_id, input_id FROM job_inputs WHERE job_id = ANY($1) ORDER BY job_id, position`, jobIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]int64, len(jobIDs))
	for rows.Next() {
		var jobID, inputID int64
		if err := rows.Scan(&jobID, &inputID); err != nil {
			return nil, err
		}
		out[jobID] = append(out[jobID], inputID)
	}
	return out, rows.Err()
}

func insertInputs(ctx context.Context, tx pgx.Tx, jobID int64, inputIDs []int64) error {
	if len(inputIDs) == 0 {
		return nil
	}
	rows := make([][]any, len(inputIDs))
	for i, id := range inputIDs {
		rows[i] = []any{jobID, id, i}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"job_inputs"},
		[]string{"job_id", "input_id", "position"},
		pgx.CopyFromRows(rows),
	)
	return err
}
