package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"uploadgw/internal/config"
	"uploadgw/internal/handler"
	"uploadgw/internal/middleware"

	_ "uploadgw/docs"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	logger zerolog.Logger,
	uploadH *handler.UploadHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Operational endpoints sit outside the origin gate and throttle.
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Upload routes; origin and method checks run before any processing.
	upload := r.Group("/upload")
	upload.Use(middleware.Recovery())
	upload.Use(middleware.RequestID(logger))
	upload.Use(middleware.Logger())
	upload.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	upload.Use(middleware.Throttle(cfg.Throttle))
	upload.Use(middleware.Deadline(cfg.Server.RequestBudget))
	upload.GET("", uploadH.Authorize)
	upload.POST("", uploadH.Upload)
	upload.OPTIONS("", func(c *gin.Context) {})
	for _, method := range []string{"PUT", "PATCH", "DELETE", "HEAD"} {
		upload.Handle(method, "", uploadH.MethodNotAllowed)
	}

	// Unrouted verbs pass the same origin gate before the method gate answers.
	r.NoMethod(
		middleware.Recovery(),
		middleware.RequestID(logger),
		middleware.Logger(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		uploadH.MethodNotAllowed,
	)

	return r
}
