package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rjlee/actual-tx-linker/internal/api/dto"
	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// Trigger schedules debounced runs. The interface keeps the HTTP layer
// decoupled from the runner.
type Trigger interface {
	Trigger(mode string, delay time.Duration)
}

// TriggerHandler accepts run-trigger requests.
type TriggerHandler struct {
	trigger  Trigger
	debounce time.Duration
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(trigger Trigger, debounce time.Duration) *TriggerHandler {
	return &TriggerHandler{trigger: trigger, debounce: debounce}
}

// Link handles POST /api/v1/link - schedules a link run.
func (h *TriggerHandler) Link(c *gin.Context) {
	h.schedule(c, storage.ModeLink)
}

// Repair handles POST /api/v1/repair - schedules a repair run.
func (h *TriggerHandler) Repair(c *gin.Context) {
	h.schedule(c, storage.ModeRepair)
}

func (h *TriggerHandler) schedule(c *gin.Context, mode string) {
	h.trigger.Trigger(mode, h.debounce)
	c.JSON(http.StatusAccepted, dto.TriggerResponse{
		Status: "scheduled",
		Mode:   mode,
	})
}
