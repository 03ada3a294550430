// Package fuzzfleet is the HTTP layer of the fuzzing job controller.
//
// It wraps a chi router with a small handler contract: handlers return an
// error instead of writing failures themselves, and one ErrorHandler turns
// those errors into responses.
//
// # Quick Start
//
//	store := memstore.New()
//	svc := job.NewService(store, store, store)
//
//	app := fuzzfleet.New(
//	    fuzzfleet.WithLogger(log),
//	    fuzzfleet.WithErrorHandler(handlers.ErrorHandler),
//	    fuzzfleet.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	    ),
//	    fuzzfleet.WithHandlers(
//	        handlers.NewJobs(svc),
//	        handlers.NewRegistry(store),
//	    ),
//	)
//
//	if err := app.Run(":8080", fuzzfleet.Logger(log)); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
//
// # Handlers
//
// Handlers implement [Handler] to declare routes:
//
//	func (h *Jobs) Routes(r fuzzfleet.Router) {
//	    r.POST("/jobs", h.create)
//	    r.GET("/jobs/{id}", h.get)
//	}
//
//	func (h *Jobs) get(c fuzzfleet.Context) error {
//	    id, err := fuzzfleet.Param[int64](c, "id")
//	    if err != nil {
//	        return fuzzfleet.ErrBadRequest("invalid job id", fuzzfleet.WithError(err))
//	    }
//	    j, err := h.svc.Get(c.Context(), id)
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(http.StatusOK, j)
//	}
//
// # Errors
//
// A handler may return an [HTTPError] built with [NewHTTPError] or one of the
// shortcuts such as [ErrNotFound]. Any other error reaches the ErrorHandler
// as is. Without a custom ErrorHandler, HTTPErrors are written as plain text
// with their status and everything else becomes a 500.
//
// # Lifecycle
//
// [App.Run] blocks until SIGINT or SIGTERM, or until the context passed with
// [WithContext] is cancelled. Startup hooks run before the listener opens;
// shutdown hooks run after in-flight requests drain, bounded by
// [ShutdownTimeout].
package fuzzfleet
