package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/internal/middleware"
	"github.com/lexhub/deadline-api/pkg/logger"
)

// Handler registers a set of routes on the authenticated API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

// New assembles the gin engine: core middleware, unauthenticated
// health and metrics endpoints, and the authenticated /api/v1 group.
func New(
	auth *middleware.AuthMiddleware,
	health *handler.HealthHandler,
	log *logger.Logger,
	config Config,
	handlers ...Handler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	if config.RateLimitRPS <= 0 {
		config.RateLimitRPS = 50
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 100
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst).Middleware(),
	)

	health.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.Use(auth.Authenticate())
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return engine
}
