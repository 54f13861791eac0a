package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	serviceName = "Realty CRM API"
	version     = "1.0.0"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Database  Pinger
	Queue     Pinger
	Cache     Pinger
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Database     string            `json:"database"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db, queue, cache Pinger) *HealthHandler {
	return &HealthHandler{
		Database:  db,
		Queue:     queue,
		Cache:     cache,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName + " is running!",
		"status":  "healthy",
		"version": version,
	})
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{
		"database": probe(ctx, h.Database),
		"rabbitmq": probe(ctx, h.Queue),
		"redis":    probe(ctx, h.Cache),
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	database := "connected"
	if deps["database"] != "healthy" {
		database = "disconnected"
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:       status,
		Service:      serviceName,
		Version:      version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Database:     database,
		Dependencies: deps,
	})
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
