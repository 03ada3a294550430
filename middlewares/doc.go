// Package middlewares provides the HTTP middleware stack of the fuzzfleet API.
//
//	app := fuzzfleet.New(
//	    fuzzfleet.WithLogger(log),
//	    fuzzfleet.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.WorkerID(),
//	        middlewares.Metrics(collector),
//	        middlewares.AccessLog(),
//	        middlewares.Recover(),
//	        middlewares.Timeout(30*time.Second),
//	    ),
//	)
//
// RequestID and WorkerID store their values in the request context. Pass
// [RequestIDExtractor] and [WorkerIDExtractor] to logger.New so every
// record logged with that context carries them.
//
// Recover and Timeout return *[PanicError] and *[TimeoutError] for the
// app's ErrorHandler to render. Timeout attaches the deadline to the request
// context, so store calls made by the handler are cancelled with it.
package middlewares
