package api

import "github.com/lhs-project/libre-health-sync/internal/status"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the persisted sync status of the served account
type StatusResponse struct {
	Account string             `json:"account"`
	Status  *status.SyncStatus `json:"status"`
}
