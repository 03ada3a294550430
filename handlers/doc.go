// Package handlers implements the JSON API of the fuzzing job controller.
//
// [Jobs] exposes the job lifecycle to fuzzing workers and operators,
// [Registry] manages the targets and inputs jobs refer to. Handlers return
// domain errors untouched; install [ErrorHandler] on the app to map them to
// status codes and the error envelope:
//
//	{"error": {"code": "invalid_transition", "message": "...", "request_id": "..."}}
//
// Validation failures are 400, unknown jobs, targets and inputs are 404,
// lifecycle conflicts are 409 and an unavailable store is 503.
package handlers
