package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rjlee/actual-tx-linker/internal/api/dto"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// RunsHandler serves the recorded run history.
type RunsHandler struct {
	repo storage.Repository
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

// List handles GET /api/v1/runs - returns recent runs, newest first.
func (h *RunsHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.RunListResponse{
		Runs:  runs,
		Count: len(runs),
	})
}

// Get handles GET /api/v1/runs/:id - returns one run with its link
// records.
func (h *RunsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("run id is required"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
		return
	}

	records, err := h.repo.ListLinkRecords(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.RunDetailResponse{
		Run:     *run,
		Records: records,
	})
}
