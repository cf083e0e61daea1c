package web

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/gate"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/internal/workflow"
)

// requestIDHeader carries the per-request correlation ID echoed to the
// client and attached to every log line the request produces.
const requestIDHeader = "X-Request-ID"

func requestIDMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set(requestIDKey, id)
		c.Next()
		if logger != nil {
			logger.Info("request", "request_id", id, "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
		}
	}
}

const requestIDKey = "request_id"

// NewServer builds the combined read HTTP API + control channel gin engine.
func NewServer(
	engine *workflow.Engine,
	registry *tools.Registry,
	store corpus.Store,
	log insights.Log,
	g *gate.Gate,
	bus *eventbus.Bus,
	accountant *tokens.Accountant,
	logger *slog.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware(logger))

	readAPI := NewReadAPI(store, log, accountant)
	readAPI.Register(router)

	plane := NewControlPlane(engine, registry, g, bus, accountant, logger)
	router.GET("/ws", gin.WrapH(plane))

	return router
}
