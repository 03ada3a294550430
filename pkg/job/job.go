package job

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusAssigned  Status = "assigned"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusAssigned, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is completed or failed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) String() string { return string(s) }

// Type classifies what a job does.
type Type string

const (
	TypeFuzz  Type = "fuzz"
	TypeOther Type = "other"
)

// Valid reports whether t is one of the known job types.
func (t Type) Valid() bool {
	return t == TypeFuzz || t == TypeOther
}

// Job is a unit of fuzzing work tracked through its lifecycle.
type Job struct {
	AssignTime          *time.Time `json:"assign_time"`
	EndTime             *time.Time `json:"end_time"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	Type                Type       `json:"job_type"`
	Status              Status     `json:"status"`
	Mutator             string     `json:"mutator,omitempty"`
	MutatorState        string     `json:"mutator_state,omitempty"`
	InstrumentationType string     `json:"instrumentation_type,omitempty"`
	Driver              string     `json:"driver,omitempty"`
	SeedFile            string     `json:"seed_file,omitempty"`
	WorkerID            string     `json:"worker_id,omitempty"`
	InputIDs            []int64    `json:"input_ids"`
	ID                  int64      `json:"job_id"`
	TargetID            int64      `json:"target_id"`
	Attempts            int        `json:"attempts"`
}

// Clone returns a deep copy of j.
func (j Job) Clone() Job {
	out := j
	if j.AssignTime != nil {
		t := *j.AssignTime
		out.AssignTime = &t
	}
	if j.EndTime != nil {
		t := *j.EndTime
		out.EndTime = &t
	}
	out.InputIDs = slices.Clone(j.InputIDs)
	if out.InputIDs == nil {
		out.InputIDs = []int64{}
	}
	return out
}

// Target is the program a job fuzzes.
type Target struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	ID        int64     `json:"target_id"`
}

// Input is a seed or corpus entry that can be attached to a job.
type Input struct {
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
	ID        int64     `json:"input_id"`
}

// CreateParams describes a job to create.
type CreateParams struct {
	Type                Type
	Mutator             string
	MutatorState        string
	InstrumentationType string
	Driver              string
	SeedFile            string
	InputIDs            []int64
	TargetID            int64
}

// UpdateParams is a combined administrative update. Nil fields are left as is.
type UpdateParams struct {
	Status   *Status
	SeedFile *string
}

// dedupeIDs drops repeated ids, keeping the first occurrence.
func dedupeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
