// Package handlers contains the JSON API handlers over the connector
// control plane.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"golang.org/x/sync/errgroup"

	"github.com/hvr-ops/hvr-manager/internal/config"
	"github.com/hvr-ops/hvr-manager/internal/manager"
)

// ContextKeyRequestID stores the request id (X-Request-ID) for logging and
// client error references.
const ContextKeyRequestID = "request_id"

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg config.Config
	Svc *manager.Service
}

// Overview is the dashboard projection: all groups plus connector tallies.
type Overview struct {
	Groups     []manager.Group     `json:"groups"`
	Connectors []manager.Connector `json:"connectors"`
	Total      int                 `json:"total"`
	Active     int                 `json:"active"`
	Paused     int                 `json:"paused"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleHealthz answers liveness probes.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleOverview fetches groups and connectors concurrently and reports
// Active/Paused tallies. Read path: remote failures answer 502.
func (h *Handlers) HandleOverview(c *echo.Context) error {
	ctx := c.Request().Context()

	var overview Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups, err := h.Svc.ListGroups(gctx)
		if err != nil {
			return err
		}
		overview.Groups = groups
		return nil
	})
	g.Go(func() error {
		connectors, err := h.Svc.ListConnectors(gctx, "")
		if err != nil {
			return err
		}
		overview.Connectors = connectors
		return nil
	})
	if err := g.Wait(); err != nil {
		return h.serviceUnavailable(c, err)
	}

	overview.Total = len(overview.Connectors)
	for _, connector := range overview.Connectors {
		if connector.Status == manager.StatusActive {
			overview.Active++
		} else {
			overview.Paused++
		}
	}
	return c.JSON(http.StatusOK, overview)
}

// HandleGroups lists all groups. Read path: failures answer 502.
func (h *Handlers) HandleGroups(c *echo.Context) error {
	groups, err := h.Svc.ListGroups(c.Request().Context())
	if err != nil {
		return h.serviceUnavailable(c, err)
	}
	return c.JSON(http.StatusOK, groups)
}

// HandleGroupShow returns one group. Read path: failures answer 502.
func (h *Handlers) HandleGroupShow(c *echo.Context) error {
	group, err := h.Svc.GetGroup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.serviceUnavailable(c, err)
	}
	return c.JSON(http.StatusOK, group)
}

// HandleConnectors lists connector summaries, optionally scoped by the
// group query parameter. Read path: failures answer 502.
func (h *Handlers) HandleConnectors(c *echo.Context) error {
	groupID := strings.TrimSpace(c.QueryParam("group"))
	connectors, err := h.Svc.ListConnectors(c.Request().Context(), groupID)
	if err != nil {
		return h.serviceUnavailable(c, err)
	}
	return c.JSON(http.StatusOK, connectors)
}

// HandleConnectorShow returns one connector's detail projection. Read path:
// failures answer 502.
func (h *Handlers) HandleConnectorShow(c *echo.Context) error {
	detail, err := h.Svc.GetConnector(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.serviceUnavailable(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// HandleActivate resumes a connector. Wrapped: always answers 200 with the
// operation result.
func (h *Handlers) HandleActivate(c *echo.Context) error {
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.Activate(ctx, c.Param("id"))
	})
}

// HandlePause pauses a connector. Wrapped.
func (h *Handlers) HandlePause(c *echo.Context) error {
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.Pause(ctx, c.Param("id"))
	})
}

// HandleSync triggers a sync, forced when force=true. Wrapped.
func (h *Handlers) HandleSync(c *echo.Context) error {
	force := parseBoolParam(c.QueryParam("force"))
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.Sync(ctx, c.Param("id"), force)
	})
}

// HandleTestConnection runs the remote connection test. Wrapped.
func (h *Handlers) HandleTestConnection(c *echo.Context) error {
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.TestConnection(ctx, c.Param("id"))
	})
}

// HandleSchemas fetches the schema/table map. Wrapped.
func (h *Handlers) HandleSchemas(c *echo.Context) error {
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.GetSchemas(ctx, c.Param("id"))
	})
}

// HandleResyncTable triggers a single-table resync. Wrapped.
func (h *Handlers) HandleResyncTable(c *echo.Context) error {
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.ResyncTable(ctx, c.Param("id"), c.Param("schema"), c.Param("table"))
	})
}

// HandleToggleTable enables or disables a table from the request body
// {"enabled": bool}. Wrapped once the body parses.
func (h *Handlers) HandleToggleTable(c *echo.Context) error {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || body.Enabled == nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error:     "request body must be a JSON object with an enabled boolean",
			RequestID: h.requestID(c),
		})
	}
	return h.operation(c, func(ctx context.Context) manager.OperationResult {
		return h.Svc.ToggleTable(ctx, c.Param("id"), c.Param("schema"), c.Param("table"), *body.Enabled)
	})
}

// operation renders a wrapped operation result. The HTTP status is 200 on
// both outcomes: success/failure lives inside the uniform result body.
func (h *Handlers) operation(c *echo.Context, run func(context.Context) manager.OperationResult) error {
	return c.JSON(http.StatusOK, run(c.Request().Context()))
}

// serviceUnavailable is the read-path failure rendering: the caller cannot
// distinguish remote state, so the listing is reported unavailable rather
// than empty.
func (h *Handlers) serviceUnavailable(c *echo.Context, err error) error {
	return c.JSON(http.StatusBadGateway, errorResponse{
		Error:     err.Error(),
		RequestID: h.requestID(c),
	})
}

func (h *Handlers) requestID(c *echo.Context) string {
	id, _ := c.Get(ContextKeyRequestID).(string)
	return id
}

func parseBoolParam(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
