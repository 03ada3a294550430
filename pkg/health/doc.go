// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	    "tasks":    task.Healthcheck(manager),
//	    "storage":  storage.Healthcheck(seeds),
//	}, health.WithOptional("storage")))
//
// Readiness runs every check concurrently under one timeout. A failed
// required check makes the service unhealthy (503). A failed optional check
// only marks it degraded (200). The body is the status word, or the full
// [Response] as JSON when the client sends Accept: application/json or
// ?format=json.
package health
