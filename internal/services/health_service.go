package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"salespulse/internal/config"
)

// RunStatusProvider exposes the state of the cached pipeline run
type RunStatusProvider interface {
	Running() bool
	LastError() error
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	runs      RunStatusProvider
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. hub and runs may be nil.
func NewHealthService(version string, paths *config.Paths, runs RunStatusProvider, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if paths == nil {
		paths = &config.Paths{}
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		runs:      runs,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status. The service is ready when every
// input table exists and the last run did not fail.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"inputs":    hs.checkInputs(),
			"pipeline":  hs.checkPipeline(),
			"websocket": hs.checkWebSocket(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "Readiness check failed", slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

func (hs *HealthService) checkInputs() ServiceHealth {
	for _, p := range []string{hs.paths.TransactionsFile, hs.paths.ProductsFile, hs.paths.CategoriesFile} {
		if p == "" || !config.FileExists(p) {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("Input file not found: %s", p),
			}
		}
	}
	return ServiceHealth{Status: "ready", Message: "Input tables present"}
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	if hs.runs == nil {
		return ServiceHealth{Status: "not_ready", Message: "pipeline not initialized"}
	}
	if err := hs.runs.LastError(); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Last run failed: %v", err)}
	}
	msg := "idle"
	if hs.runs.Running() {
		msg = "run in progress"
	}
	return ServiceHealth{Status: "ready", Message: msg}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	h := ServiceHealth{Status: "ready", Uptime: time.Since(hs.startTime).String()}
	if hs.hub != nil {
		h.Message = fmt.Sprintf("%d clients connected", hs.hub.ClientCount())
	}
	return h
}
