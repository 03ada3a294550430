package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/fuzzfleet"
	"github.com/dmitrymomot/fuzzfleet/middlewares"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
	"github.com/dmitrymomot/fuzzfleet/pkg/storage"
)

// Error codes sent in error bodies.
const (
	CodeBadRequest         = "bad_request"
	CodeValidationFailed   = "validation_failed"
	CodeMissingField       = "missing_field"
	CodeInvalidJobType     = "invalid_job_type"
	CodeInvalidStatus      = "invalid_status"
	CodeUnknownTarget      = "unknown_target"
	CodeUnknownInput       = "unknown_input"
	CodeNotFound           = "not_found"
	CodeDuplicateTarget    = "duplicate_target"
	CodeAlreadyAssigned    = "already_assigned"
	CodeInvalidTransition  = "invalid_transition"
	CodeSeedTooLarge       = "seed_too_large"
	CodeUnsupportedMedia   = "unsupported_media_type"
	CodeStoreUnavailable   = "store_unavailable"
	CodeTimeout            = "timeout"
	CodeInternal           = "internal_error"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodeStorageUnavailable = "storage_unavailable"
)

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details   any    `json:"details,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders any handler error as an ErrorBody. Domain errors are
// mapped to their HTTP status; unexpected errors are logged and hidden
// behind a 500.
func ErrorHandler(c fuzzfleet.Context, err error) error {
	httpErr := toHTTPError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		attrs := []any{slog.Any("error", err), slog.Int("status", httpErr.Code)}
		if pe, ok := middlewares.AsPanicError(err); ok && pe.Stack != nil {
			attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		}
		c.LogError("request failed", attrs...)
	}

	return c.JSON(httpErr.Code, ErrorBody{Error: ErrorDetail{
		Code:      httpErr.ErrorCode,
		Message:   httpErr.Message,
		Details:   httpErr.Details,
		RequestID: middlewares.GetRequestID(c),
	}})
}

// NotFound renders unknown routes with the JSON error envelope.
func NotFound(c fuzzfleet.Context) error {
	return fuzzfleet.ErrNotFound("route not found", fuzzfleet.WithErrorCode(CodeNotFound))
}

// MethodNotAllowed renders unsupported methods with the JSON error envelope.
func MethodNotAllowed(c fuzzfleet.Context) error {
	return fuzzfleet.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed",
		fuzzfleet.WithErrorCode(CodeMethodNotAllowed))
}

func toHTTPError(err error) *fuzzfleet.HTTPError {
	if httpErr := fuzzfleet.AsHTTPError(err); httpErr != nil {
		out := *httpErr
		if out.ErrorCode == "" {
			out.ErrorCode = codeForStatus(out.Code)
		}
		return &out
	}

	var verrs fuzzfleet.ValidationErrors
	if errors.As(err, &verrs) {
		return fuzzfleet.ErrBadRequest("request validation failed",
			fuzzfleet.WithError(err),
			fuzzfleet.WithErrorCode(CodeValidationFailed),
			fuzzfleet.WithDetails(verrs),
		)
	}

	if _, ok := middlewares.AsTimeoutError(err); ok || errors.Is(err, context.DeadlineExceeded) {
		return fuzzfleet.ErrServiceUnavailable("request timed out",
			fuzzfleet.WithError(err), fuzzfleet.WithErrorCode(CodeTimeout))
	}

	code, status := classify(err)
	msg := message(err)
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	return fuzzfleet.NewHTTPError(status, msg, fuzzfleet.WithError(err), fuzzfleet.WithErrorCode(code))
}

// classify maps a domain error to an error code and HTTP status.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, fuzzfleet.ErrUnsupportedMediaType):
		return CodeUnsupportedMedia, http.StatusUnsupportedMediaType
	case errors.Is(err, fuzzfleet.ErrMalformedBody), errors.Is(err, fuzzfleet.ErrInvalidParam):
		return CodeBadRequest, http.StatusBadRequest

	case errors.Is(err, job.ErrMissingField):
		return CodeMissingField, http.StatusBadRequest
	case errors.Is(err, job.ErrInvalidJobType):
		return CodeInvalidJobType, http.StatusBadRequest
	case errors.Is(err, job.ErrInvalidStatus):
		return CodeInvalidStatus, http.StatusBadRequest
	case errors.Is(err, job.ErrUnknownTarget):
		return CodeUnknownTarget, http.StatusBadRequest
	case errors.Is(err, job.ErrUnknownInput):
		return CodeUnknownInput, http.StatusBadRequest

	case errors.Is(err, job.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return CodeNotFound, http.StatusNotFound

	case errors.Is(err, job.ErrDuplicateTarget):
		return CodeDuplicateTarget, http.StatusConflict
	case errors.Is(err, job.ErrAlreadyAssigned):
		return CodeAlreadyAssigned, http.StatusConflict
	case errors.Is(err, job.ErrInvalidTransition):
		return CodeInvalidTransition, http.StatusConflict

	case errors.Is(err, storage.ErrEmptyObject):
		return CodeBadRequest, http.StatusBadRequest
	case errors.Is(err, storage.ErrObjectTooLarge):
		return CodeSeedTooLarge, http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrUploadFailed), errors.Is(err, storage.ErrAccessDenied),
		errors.Is(err, storage.ErrPresignFailed), errors.Is(err, storage.ErrDeleteFailed):
		return CodeStorageUnavailable, http.StatusBadGateway

	case errors.Is(err, job.ErrStoreUnavailable):
		return CodeStoreUnavailable, http.StatusServiceUnavailable
	}
	return CodeInternal, http.StatusInternalServerError
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusServiceUnavailable:
		return CodeStoreUnavailable
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// message strips package prefixes from sentinel text.
func message(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"job: ", "storage: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
