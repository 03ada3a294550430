package handlers

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/fuzzfleet"
	"github.com/dmitrymomot/fuzzfleet/pkg/job"
)

// Registry serves targets and inputs.
type Registry struct {
	reg job.Registry
}

func NewRegistry(reg job.Registry) *Registry {
	return &Registry{reg: reg}
}

func (h *Registry) Routes(r fuzzfleet.Router) {
	r.POST("/targets", h.createTarget)
	r.GET("/targets/{id}", h.getTarget)
	r.POST("/inputs", h.createInput)
	r.GET("/inputs/{id}", h.getInput)
}

type createTargetRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

func (h *Registry) createTarget(c fuzzfleet.Context) error {
	var req createTargetRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return err
	}
	if verrs != nil {
		return verrs
	}

	t, err := h.reg.CreateTarget(c.Context(), req.Name)
	if err != nil {
		return err
	}
	c.SetHeader("Location", "/targets/"+strconv.FormatInt(t.ID, 10))
	return c.JSON(http.StatusCreated, t)
}

func (h *Registry) getTarget(c fuzzfleet.Context) error {
	id, err := fuzzfleet.Param[int64](c, "id")
	if err != nil {
		return fuzzfleet.ErrBadRequest("target id must be an integer", fuzzfleet.WithError(err))
	}
	t, err := h.reg.GetTarget(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

type createInputRequest struct {
	Path string `json:"path" validate:"required,max=1024"`
}

func (h *Registry) createInput(c fuzzfleet.Context) error {
	var req createInputRequest
	verrs, err := c.BindJSON(&req)
	if err != nil {
		return err
	}
	if verrs != nil {
		return verrs
	}

	in, err := h.reg.CreateInput(c.Context(), req.Path)
	if err != nil {
		return err
	}
	c.SetHeader("Location", "/inputs/"+strconv.FormatInt(in.ID, 10))
	return c.JSON(http.StatusCreated, in)
}

func (h *Registry) getInput(c fuzzfleet.Context) error {
	id, err := fuzzfleet.Param[int64](c, "id")
	if err != nil {
		return fuzzfleet.ErrBadRequest("input id must be an integer", fuzzfleet.WithError(err))
	}
	in, err := h.reg.GetInput(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, in)
}
