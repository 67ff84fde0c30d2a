package http

import (
	"github.com/gin-gonic/gin"

	"github.com/taskorbit/taskorbit/internal/auth"
	"github.com/taskorbit/taskorbit/internal/database"
)

// RouterConfig bundles the router's dependencies so wiring stays in one
// place and tests can swap pieces out.
type RouterConfig struct {
	Database       *database.Database
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before the session middleware so the session context is
	// layered on top of the CSRF-annotated request.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}
	if cfg.Database != nil {
		NewTasksController(cfg.Database).RegisterRoutes(router)
	}

	return router
}
