package router

import (
	"github.com/gin-gonic/gin"

	"vetscan/internal/domain"
	"vetscan/internal/handler"
	"vetscan/internal/middleware"
	"vetscan/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authSvc service.AuthService,
	rateLimiter *middleware.RateLimiter,
	allowedOrigins []string,
	authH *handler.AuthHandler,
	docH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/token", authH.Token)

	// Protected routes - require API key or valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))
	protected.Use(rateLimiter.Middleware())

	docs := protected.Group("/documents")
	docs.POST("", middleware.RequireScope(domain.ScopeDocumentsWrite), docH.Upload)
	docs.GET("", middleware.RequireScope(domain.ScopeDocumentsRead), docH.List)
	docs.GET("/export", middleware.RequireScope(domain.ScopeDocumentsRead), docH.Export)
	docs.GET("/:id", middleware.RequireScope(domain.ScopeDocumentsRead), docH.GetByID)
	docs.GET("/:id/images", middleware.RequireScope(domain.ScopeDocumentsRead), docH.GetImages)
	docs.DELETE("/:id", middleware.RequireScope(domain.ScopeDocumentsWrite), docH.Delete)

	return r
}
