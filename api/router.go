package api

import (
	"net/http"

	"catalog/api/middleware"
	"catalog/config"

	"github.com/gin-gonic/gin"
)

// ControllerRegister is implemented by every controller mounted under /api/v1
type ControllerRegister interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// MiddlewareRegister contributes extra middleware after the default chain
type MiddlewareRegister interface {
	Middleware() gin.HandlerFunc
}

// MiddlewareFunc adapts a gin.HandlerFunc to MiddlewareRegister
type MiddlewareFunc gin.HandlerFunc

func (f MiddlewareFunc) Middleware() gin.HandlerFunc { return gin.HandlerFunc(f) }

// Route is a route mounted at the engine root, outside /api/v1 (e.g. /metrics)
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Router Route configuration
type Router struct {
	engine      *gin.Engine
	config      *config.Config
	controllers []ControllerRegister
	routes      []Route
}

// NewRouter Create route configuration
func NewRouter(
	cfg *config.Config,
	controllers []ControllerRegister,
	middlewares []MiddlewareRegister,
	routes []Route,
) *Router {
	// Set Gin mode based on environment
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Add middleware (order is important)
	engine.Use(middleware.RequestIDMiddleware())                      // 1. Generate request ID first
	engine.Use(middleware.RecoveryMiddleware())                       // 2. Recovery middleware
	engine.Use(middleware.LoggingMiddleware())                        // 3. Logging middleware
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))                  // 4. CORS
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit)) // 5. Rate limiting
	engine.Use(middleware.ActorMiddleware())                          // 6. Caller identity for audit
	for _, m := range middlewares {
		engine.Use(m.Middleware())
	}

	return &Router{
		engine:      engine,
		config:      cfg,
		controllers: controllers,
		routes:      routes,
	}
}

// SetupRoutes Set up all routes
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	for _, c := range r.controllers {
		c.RegisterRoutes(apiGroup)
	}

	for _, route := range r.routes {
		r.engine.Handle(route.Method, route.Path, route.Handler)
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

// GetEngine Get Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
