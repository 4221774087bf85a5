package dto

import (
	"time"

	"github.com/rjlee/actual-tx-linker/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []storage.Run `json:"runs"`
	Count int           `json:"count"`
}

// RunDetailResponse is a run together with its link records.
type RunDetailResponse struct {
	Run     storage.Run          `json:"run"`
	Records []storage.LinkRecord `json:"records"`
}

// TriggerResponse acknowledges a triggered run. The run itself executes
// asynchronously after the debounce delay.
type TriggerResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}
