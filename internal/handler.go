package internal

// Handler declares routes on a router.
//
// Example:
//
//	type JobsHandler struct {
//	    svc *job.Service
//	}
//
//	func (h *JobsHandler) Routes(r fuzzfleet.Router) {
//	    r.GET("/jobs/{id}", h.get)
//	    r.POST("/jobs", h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands it to the app's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
//
// Example:
//
//	func RequireWorker(next fuzzfleet.HandlerFunc) fuzzfleet.HandlerFunc {
//	    return func(c fuzzfleet.Context) error {
//	        if c.Header("X-Worker-ID") == "" {
//	            return fuzzfleet.ErrBadRequest("worker id required")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler writes the response for an error returned by a handler.
type ErrorHandler func(Context, error) error
