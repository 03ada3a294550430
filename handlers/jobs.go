package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/fuzzfleet"
	"github.com/dmitrymomot/fuzzfleet/middlewares"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
	"github.com/dmitrymomot/fuzzfleet/pkg/storage"
)

// JobService is the part of job.Service the HTTP API uses.
type JobService interface {
	Create(ctx context.Context, p job.CreateParams) (job.Job, error)
	Get(ctx context.Context, id int64) (job.Job, error)
	ListByTarget(ctx context.Context, targetID int64) ([]job.Job, error)
	UpdateStatus(ctx context.Context, id int64, to job.Status) (job.Job, error)
	Update(ctx context.Context, id int64, p job.UpdateParams) (job.Job, error)
	Claim(ctx context.Context, id int64, workerID string) (job.Job, error)
	ClaimNext(ctx context.Context, workerID string, targetID int64) (job.Job, error)
	SetSeedFile(ctx context.Context, id int64, path string) (job.Job, error)
}

var _ JobService = (*job.Service)(nil)

// Jobs serves the job lifecycle API.
type Jobs struct {
	svc   JobService
	seeds storage.Storage
}

// JobsOption configures Jobs.
type JobsOption func(*Jobs)

// WithSeedStorage enables the seed upload and download endpoints.
func WithSeedStorage(s storage.Storage) JobsOption {
	return func(h *Jobs) {
		h.seeds = s
	}
}

func NewJobs(svc JobService, opts ...JobsOption) *Jobs {
	h := &Jobs{svc: svc}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Jobs) Routes(r fuzzfleet.Router) {
	r.Route("/jobs", func(r fuzzfleet.Router) {
		r.POST("/", h.create)
		r.GET("/", h.list)
		r.POST("/claim", h.claimNext)

		r.GET("/{id}", h.get)
		r.PUT("/{id}", h.update)
		r.POST("/{id}/claim", h.claim)
		r.POST("/{id}/start", h.transition(job.StatusRunning))
		r.POST("/{id}/complete", h.transition(job.StatusCompleted))
		r.POST("/{id}/fail", h.transition(job.StatusFailed))
		r.POST("/{id}/requeue", h.transition(job.StatusQueued))

		if h.seeds != nil {
			r.PUT("/{id}/seed", h.uploadSeed)
			r.GET("/{id}/seed", h.seedURL)
		}
	})
}

type createJobRequest struct {
	JobType             job.Type `json:"job_type" validate:"max=32"`
	Mutator             string   `json:"mutator" validate:"max=255"`
	MutatorState        string   `json:"mutator_state" validate:"max=65536"`
	InstrumentationType string   `json:"instrumentation_type" validate:"max=255"`
	Driver              string   `json:"driver" validate:"max=255"`
	SeedFile            string   `json:"seed_file" validate:"max=1024"`
	InputIDs            []int64  `json:"input_ids"`
	TargetID            int64    `json:"target_id"`
}

func (h *Jobs) create(c fuzzfleet.Context) error {
	var req createJobRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return err
	}
	if verrs != nil {
		return verrs
	}

	j, err := h.svc.Create(c.Context(), job.CreateParams{
		TargetID:            req.TargetID,
		Type:                req.JobType,
		Mutator:             req.Mutator,
		MutatorState:        req.MutatorState,
		InstrumentationType: req.InstrumentationType,
		Driver:              req.Driver,
		SeedFile:            req.SeedFile,
		InputIDs:            req.InputIDs,
	})
	if err != nil {
		return err
	}

	c.SetHeader("Location", "/jobs/"+strconv.FormatInt(j.ID, 10))
	return c.JSON(http.StatusCreated, j)
}

func (h *Jobs) get(c fuzzfleet.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	j, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, j)
}

// list answers GET /jobs?id=N with a one-element list and
// GET /jobs?target_id=N with every job of the target.
func (h *Jobs) list(c fuzzfleet.Context) error {
	id, hasID, err := fuzzfleet.Query[int64](c, "id")
	if err != nil {
		return fuzzfleet.ErrBadRequest("id must be an integer", fuzzfleet.WithError(err))
	}
	targetID, hasTarget, err := fuzzfleet.Query[int64](c, "target_id")
	if err != nil {
		return fuzzfleet.ErrBadRequest("target_id must be an integer", fuzzfleet.WithError(err))
	}

	switch {
	case hasID && hasTarget:
		return fuzzfleet.ErrBadRequest("id and target_id are mutually exclusive")
	case hasID:
		j, err := h.svc.Get(c.Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, []job.Job{j})
	case hasTarget:
		jobs, err := h.svc.ListByTarget(c.Context(), targetID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, jobs)
	default:
		return fuzzfleet.ErrBadRequest("either id or target_id must be supplied")
	}
}

type updateJobRequest struct {
	Status   *job.Status `json:"status"`
	SeedFile *string     `json:"seed_file" validate:"omitempty,max=1024"`
}

func (h *Jobs) update(c fuzzfleet.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}

	var req updateJobRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return err
	}
	if verrs != nil {
		return verrs
	}

	j, err := h.svc.Update(c.Context(), id, job.UpdateParams{Status: req.Status, SeedFile: req.SeedFile})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, j)
}

func (h *Jobs) claim(c fuzzfleet.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	worker, err := workerID(c)
	if err != nil {
		return err
	}

	j, err := h.svc.Claim(c.Context(), id, worker)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, j)
}

func (h *Jobs) claimNext(c fuzzfleet.Context) error {
	worker, err := workerID(c)
	if err != nil {
		return err
	}
	targetID, _, err := fuzzfleet.Query[int64](c, "target_id")
	if err != nil {
		return fuzzfleet.ErrBadRequest("target_id must be an integer", fuzzfleet.WithError(err))
	}

	j, err := h.svc.ClaimNext(c.Context(), worker, targetID)
	if errors.Is(err, job.ErrNoQueuedJobs) {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, j)
}

func (h *Jobs) transition(to job.Status) fuzzfleet.HandlerFunc {
	return func(c fuzzfleet.Context) error {
		id, err := jobID(c)
		if err != nil {
			return err
		}
		j, err := h.svc.UpdateStatus(c.Context(), id, to)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, j)
	}
}

// uploadSeed stores the request body as the job's seed file.
// The previous seed object, if any, is left in place.
func (h *Jobs) uploadSeed(c fuzzfleet.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	ctx := c.Context()

	if _, err := h.svc.Get(ctx, id); err != nil {
		return err
	}

	r := c.Request()
	obj, err := h.seeds.Put(ctx, r.Body, r.ContentLength, storage.WithPrefix("jobs/"+strconv.FormatInt(id, 10)))
	if err != nil {
		return err
	}

	j, err := h.svc.SetSeedFile(ctx, id, obj.Key)
	if err != nil {
		if derr := h.seeds.Delete(context.WithoutCancel(ctx), obj.Key); derr != nil {
			c.LogWarn("orphaned seed object", "key", obj.Key, "error", derr)
		}
		return err
	}

	c.LogInfo("seed uploaded", "job_id", id, "key", obj.Key, "size", obj.Size)
	return c.JSON(http.StatusOK, j)
}

// seedURL redirects to a pre-signed download URL for the job's seed.
func (h *Jobs) seedURL(c fuzzfleet.Context) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	j, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	if j.SeedFile == "" {
		return fuzzfleet.ErrNotFound("job has no seed file", fuzzfleet.WithErrorCode(CodeNotFound))
	}

	u, err := h.seeds.URL(c.Context(), j.SeedFile)
	if err != nil {
		return err
	}
	http.Redirect(c.Response(), c.Request(), u, http.StatusTemporaryRedirect)
	return nil
}

func jobID(c fuzzfleet.Context) (int64, error) {
	id, err := fuzzfleet.Param[int64](c, "id")
	if err != nil || id <= 0 {
		return 0, fuzzfleet.ErrBadRequest("job id must be a positive integer", fuzzfleet.WithError(err))
	}
	return id, nil
}

// workerID reads the caller's worker identity. The WorkerID middleware
// stores it when installed; otherwise the header is read directly.
func workerID(c fuzzfleet.Context) (string, error) {
	id := middlewares.GetWorkerID(c)
	if id == "" {
		id = c.Header(middlewares.WorkerIDHeader)
	}
	if id == "" {
		return "", fuzzfleet.ErrBadRequest("worker id is required", fuzzfleet.WithErrorCode(CodeMissingField))
	}
	return id, nil
}
