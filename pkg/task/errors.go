package task

import "errors"

var (
	// ErrUnknownTask is returned when a task name has no registered handler.
	ErrUnknownTask = errors.New("task: unknown task")

	// ErrInvalidPayload is returned when a payload cannot be decoded into the handler's type.
	ErrInvalidPayload = errors.New("task: invalid payload")

	ErrAlreadyStarted    = errors.New("task: already started")
	ErrNotStarted        = errors.New("task: not started")
	ErrPoolRequired      = errors.New("task: pool is required")
	ErrHealthcheckFailed = errors.New("task: healthcheck failed")
)
