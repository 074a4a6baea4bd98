package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fractalschool/recsys-backend/internal/handlers"
	"github.com/fractalschool/recsys-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName    string
	AllowOrigins   []string
	AuthHandler    *handlers.AuthHandler
	VariantHandler *handlers.VariantHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Variants
	protected.GET("/variants", cfg.VariantHandler.ListAssignments)
	protected.GET("/variants/assignments/:assignmentID", cfg.VariantHandler.GetAssignment)
	protected.POST("/variants/assignments/:assignmentID/attempts", cfg.VariantHandler.StartAttempt)
	protected.GET("/variants/attempts/:attemptID", cfg.VariantHandler.GetAttempt)
	protected.POST("/variants/attempts/:attemptID/tasks/:variantTaskID/submit", cfg.VariantHandler.SubmitTaskAnswer)
	protected.POST("/variants/attempts/:attemptID/finalize", cfg.VariantHandler.FinalizeAttempt)

	return router
}
