package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/gamedata-server/internal/auth"
	"github.com/PratikDhanave/gamedata-server/internal/config"
	"github.com/PratikDhanave/gamedata-server/internal/handlers"
	"github.com/PratikDhanave/gamedata-server/internal/pipeline"
)

// NewRouter wires public endpoints and the authenticated admin API.
// Public: /health, /ready, /store
// Authenticated: /admin/status
func NewRouter(cfg config.Config, p *pipeline.Pipeline) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: the worker runs and its database is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := p.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Intake is open; producers authenticate with tokens in the payload.
	handlers.RegisterIntakeRoutes(r, p, cfg.MaxPayloadBytes)

	admin := r.Group("/")
	admin.Use(auth.APIKeyMiddleware(cfg.AdminKeyNames()))
	handlers.RegisterStatusRoutes(admin, p)

	return r
}
