package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/givelane/givelane-api/internal/service"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/jobs"
	"github.com/givelane/givelane-api/pkg/response"
)

// SweepHandler exposes manual control over the lifecycle sweeper.
type SweepHandler struct {
	sweeper *service.SweeperService
	queue   *jobs.Queue
}

// NewSweepHandler constructs SweepHandler.
func NewSweepHandler(sweeper *service.SweeperService, queue *jobs.Queue) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, queue: queue}
}

// RunNow godoc
// @Summary Run a lifecycle sweep synchronously
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/sweep [post]
func (h *SweepHandler) RunNow(c *gin.Context) {
	result, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Enqueue godoc
// @Summary Queue a lifecycle sweep in the background
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 202 {object} response.Envelope
// @Router /admin/sweep/enqueue [post]
func (h *SweepHandler) Enqueue(c *gin.Context) {
	if h.queue == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "sweep queue not running"))
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: service.SweepJobType}
	if !h.queue.TryEnqueue(job) {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "a sweep is already queued"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"job_id": job.ID}, nil)
}
