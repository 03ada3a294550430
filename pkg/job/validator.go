package job

import "context"

// Validator enforces referential integrity and defaults for new jobs.
type Validator struct {
	targets TargetLookup
	inputs  InputLookup
}

// NewValidator creates a validator backed by read-only lookups.
func NewValidator(targets TargetLookup, inputs InputLookup) *Validator {
	return &Validator{targets: targets, inputs: inputs}
}

// ValidateCreate checks p and returns a normalized copy with defaults applied.
// Lookup failures are returned as is.
func (v *Validator) ValidateCreate(ctx context.Context, p CreateParams) (CreateParams, error) {
	if p.TargetID == 0 {
		return CreateParams{}, &ValidationError{Err: ErrMissingField, Field: "target_id"}
	}

	if p.Type == "" {
		p.Type = TypeFuzz
	}
	if !p.Type.Valid() {
		return CreateParams{}, &ValidationError{Err: ErrInvalidJobType, Field: "job_type", Value: p.Type}
	}

	ok, err := v.targets.TargetExists(ctx, p.TargetID)
	if err != nil {
		return CreateParams{}, err
	}
	if !ok {
		return CreateParams{}, &ValidationError{Err: ErrUnknownTarget, Field: "target_id", Value: p.TargetID}
	}

	p.InputIDs = dedupeIDs(p.InputIDs)
	for _, id := range p.InputIDs {
		ok, err := v.inputs.InputExists(ctx, id)
		if err != nil {
			return CreateParams{}, err
		}
		if !ok {
			return CreateParams{}, &ValidationError{Err: ErrUnknownInput, Field: "input_ids", Value: id}
		}
	}

	return p, nil
}
