package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rjlee/actual-tx-linker/internal/api/dto"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// StatsHandler serves aggregated run-history statistics.
type StatsHandler struct {
	repo storage.Repository
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{repo: repo}
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	c.JSON(http.StatusOK, stats)
}
