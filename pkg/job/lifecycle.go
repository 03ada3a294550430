package job

import (
	"slices"
	"time"
)

// transitions lists the allowed status changes. Claims (queued -> assigned)
// go through Claim so they can record the worker.
var transitions = map[Status][]Status{
	StatusQueued:   {StatusAssigned},
	StatusAssigned: {StatusRunning, StatusFailed},
	StatusRunning:  {StatusCompleted, StatusFailed},
	StatusFailed:   {StatusQueued},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// Transition moves j to status to, maintaining the timestamps that go with it.
// On error j is left untouched.
func Transition(j *Job, to Status, now time.Time) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if to == StatusAssigned {
		return Claim(j, "", now)
	}
	if !CanTransition(j.Status, to) {
		return &TransitionError{Err: ErrInvalidTransition, From: j.Status, To: to}
	}

	switch to {
	case StatusCompleted, StatusFailed:
		t := now
		j.EndTime = &t
	case StatusQueued:
		j.AssignTime = nil
		j.EndTime = nil
		j.WorkerID = ""
	}
	j.Status = to
	return nil
}

// Claim assigns a queued job to a worker.
// Assigned and running jobs fail with ErrAlreadyAssigned; completed and
// failed jobs fail with ErrInvalidTransition.
func Claim(j *Job, workerID string, now time.Time) error {
	switch {
	case j.Status.Terminal():
		return &TransitionError{Err: ErrInvalidTransition, From: j.Status, To: StatusAssigned}
	case j.Status != StatusQueued:
		return &TransitionError{Err: ErrAlreadyAssigned, From: j.Status, To: StatusAssigned}
	}
	t := now
	j.AssignTime = &t
	j.EndTime = nil
	j.WorkerID = workerID
	j.Attempts++
	j.Status = StatusAssigned
	return nil
}

// Stale reports whether j holds an assignment older than lease at now.
func Stale(j Job, lease time.Duration, now time.Time) bool {
	if j.Status != StatusAssigned && j.Status != StatusRunning {
		return false
	}
	return j.AssignTime != nil && now.Sub(*j.AssignTime) > lease
}
