package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/fuzzfleet/pkg/job"
)

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// storeErr maps a database error onto the job error kinds.
// Domain and context errors pass through unchanged.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, job.ErrNotFound),
		errors.Is(err, job.ErrDuplicateTarget),
		job.IsValidation(err),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			switch pgErr.ConstraintName {
			case "jobs_target_id_fkey":
				return &job.ValidationError{Err: job.ErrUnknownTarget, Field: "target_id"}
			case "job_inputs_input_id_fkey":
				return &job.ValidationError{Err: job.ErrUnknownInput, Field: "input_ids"}
			}
		case codeUniqueViolation:
			if pgErr.ConstraintName == "targets_name_key" {
				return job.ErrDuplicateTarget
			}
		case codeCheckViolation:
			return fmt.Errorf("pgstore: %s: %w", op, errors.Join(job.ErrInternal, err))
		}
	}

	return fmt.Errorf("pgstore: %s: %w", op, errors.Join(job.ErrStoreUnavailable, err))
}
