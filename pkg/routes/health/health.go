// Package health exposes liveness and readiness probes for the status
// server. The health endpoint also pings the database so orchestrators can
// tell a hung pool apart from a hung process.
package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
)

// Checker serves the health endpoints.
type Checker struct {
	db        database.DB
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a health checker.
func NewChecker(db database.DB, version string) *Checker {
	return &Checker{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady flips the readiness probe. Called once startup wiring is done.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers the health endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthResponse is the body of the full health check.
type HealthResponse struct {
	Status          string    `json:"status"`
	Version         string    `json:"version"`
	Uptime          string    `json:"uptime"`
	Database        string    `json:"database"`
	DatabaseLatency string    `json:"database_latency,omitempty"`
	DatabaseError   string    `json:"database_error,omitempty"`
	ReportedAt      time.Time `json:"reported_at"`
}

// Health reports overall health, including a live database ping.
func (c *Checker) Health(ctx echo.Context) error {
	resp := &HealthResponse{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Database:   "healthy",
		ReportedAt: time.Now().UTC(),
	}

	start := time.Now()
	if err := c.db.PingContext(ctx.Request().Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "unhealthy"
		resp.DatabaseError = err.Error()
		return ctx.JSON(http.StatusServiceUnavailable, resp)
	}
	resp.DatabaseLatency = time.Since(start).String()

	return ctx.JSON(http.StatusOK, resp)
}

// Live reports that the process is running.
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether startup wiring has completed.
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}

	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
