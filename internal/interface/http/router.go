package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/keto-dashboard/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxFileBytes
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Healthz)

	api := router.Group("/api/v1")
	{
		api.POST("/sessions", handler.StartSession)
		api.GET("/ingredients", handler.Ingredients)

		session := api.Group("")
		session.Use(sessionMiddleware(handler.svc))
		{
			session.DELETE("/sessions/current", handler.EndSession)
			session.POST("/reports", handler.UploadReports)
			session.GET("/reports", handler.ListReports)
			session.GET("/trends", handler.Trends)
			session.GET("/recommendations", handler.Recommendations)
			session.PUT("/preferences", handler.UpdatePreferences)
			session.GET("/mealplan", handler.MealPlan)
			session.POST("/mealplan/exports", handler.ExportMealPlan)
			session.GET("/mealplan/exports/:id", handler.DownloadExport)
			session.GET("/dashboard", handler.Dashboard)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
