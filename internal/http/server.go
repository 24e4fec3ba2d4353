package httpapp

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/hvr-ops/hvr-manager/internal/config"
	"github.com/hvr-ops/hvr-manager/internal/http/handlers"
	"github.com/hvr-ops/hvr-manager/internal/manager"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates the JSON API server over the connector service.
func NewEchoServer(cfg config.Config, svc *manager.Service) (*EchoServer, error) {
	h := &handlers.Handlers{Cfg: cfg, Svc: svc}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.Use(requestIDMiddleware)
	es.registerRoutes()
	return es, nil
}

// Handler exposes the router for an http.Server.
func (es *EchoServer) Handler() http.Handler {
	return es.e
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)

	api := es.e.Group("/api")
	api.GET("/overview", es.h.HandleOverview)
	api.GET("/groups", es.h.HandleGroups)
	api.GET("/groups/:id", es.h.HandleGroupShow)
	api.GET("/connectors", es.h.HandleConnectors)
	api.GET("/connectors/:id", es.h.HandleConnectorShow)
	api.POST("/connectors/:id/activate", es.h.HandleActivate)
	api.POST("/connectors/:id/pause", es.h.HandlePause)
	api.POST("/connectors/:id/sync", es.h.HandleSync)
	api.POST("/connectors/:id/test", es.h.HandleTestConnection)
	api.GET("/connectors/:id/schemas", es.h.HandleSchemas)
	api.POST("/connectors/:id/schemas/:schema/tables/:table/resync", es.h.HandleResyncTable)
	api.PATCH("/connectors/:id/schemas/:schema/tables/:table", es.h.HandleToggleTable)
}

// requestIDMiddleware assigns every request a correlation id, honoring one
// supplied by the caller.
func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := strings.TrimSpace(c.Request().Header.Get(echo.HeaderXRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		c.Set(handlers.ContextKeyRequestID, id)
		return next(c)
	}
}
