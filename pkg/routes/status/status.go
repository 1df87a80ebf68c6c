// Package status exposes the operational status surface: the latest run
// summary, whether a rebuild currently holds the advisory lock, and the
// largest published networks.
package status

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sk123/theyownwhat-sub000/pkg/models"
)

const defaultNetworkLimit = 20

// RunSource provides run summaries.
type RunSource interface {
	GetLatest(ctx context.Context) (*models.PipelineRun, error)
	List(ctx context.Context, limit int) ([]models.PipelineRun, error)
}

// NetworkSource provides the published snapshot.
type NetworkSource interface {
	ListNetworks(ctx context.Context, limit int) ([]models.Network, error)
	ListMemberships(ctx context.Context, networkID string) ([]models.NetworkMembership, error)
}

// LockChecker reports whether the rebuild lock is held.
type LockChecker interface {
	IsLocked(ctx context.Context, key string) (bool, error)
}

// Handler serves the status endpoints.
type Handler struct {
	runs     RunSource
	networks NetworkSource
	locks    LockChecker
	lockKey  string
}

// NewHandler creates a status handler.
func NewHandler(runs RunSource, networks NetworkSource, locks LockChecker, lockKey string) *Handler {
	return &Handler{
		runs:     runs,
		networks: networks,
		locks:    locks,
		lockKey:  lockKey,
	}
}

// RegisterRoutes registers the status endpoints
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/status", h.Status)
	e.GET("/api/v1/runs", h.Runs)
	e.GET("/api/v1/networks", h.Networks)
	e.GET("/api/v1/networks/:id/members", h.NetworkMembers)
}

// StatusResponse is the status endpoint payload.
type StatusResponse struct {
	RebuildInProgress bool                `json:"rebuild_in_progress"`
	LatestRun         *models.PipelineRun `json:"latest_run,omitempty"`
	ReportedAt        time.Time           `json:"reported_at"`
}

// Status reports the latest run and whether a rebuild holds the lock.
func (h *Handler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	locked, err := h.locks.IsLocked(ctx, h.lockKey)
	if err != nil {
		return err
	}
	latest, err := h.runs.GetLatest(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &StatusResponse{
		RebuildInProgress: locked,
		LatestRun:         latest,
		ReportedAt:        time.Now().UTC(),
	})
}

// Runs lists recent run summaries, newest first.
func (h *Handler) Runs(c echo.Context) error {
	ctx := c.Request().Context()

	limit := parseLimit(c.QueryParam("limit"), defaultNetworkLimit)
	runs, err := h.runs.List(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, runs)
}

// Networks lists the largest published networks.
func (h *Handler) Networks(c echo.Context) error {
	ctx := c.Request().Context()

	limit := parseLimit(c.QueryParam("limit"), defaultNetworkLimit)
	networks, err := h.networks.ListNetworks(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, networks)
}

// NetworkMembers lists one network's memberships.
func (h *Handler) NetworkMembers(c echo.Context) error {
	ctx := c.Request().Context()

	memberships, err := h.networks.ListMemberships(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, memberships)
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
