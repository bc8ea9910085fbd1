package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/metrics"
	"github.com/mamadbah2/coopkeeper/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The webhook routes
// are registered only when webhook is non-nil.
func New(handler *handlers.CoopHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.GET("/eggs", handler.GetEggs)
		api.POST("/eggs/increment", handler.IncrementEggs)
		api.POST("/eggs/reset", handler.ResetEggs)

		api.GET("/tasks", handler.GetTasks)
		api.POST("/tasks/:id/toggle", handler.ToggleTask)

		api.GET("/expenses", handler.ListExpenses)
		api.POST("/expenses", handler.AddExpense)
		api.GET("/expenses/monthly", handler.MonthlyExpenses)

		api.GET("/chickens", handler.ListChickens)
		api.POST("/chickens", handler.AddChicken)

		api.GET("/export/eggs.csv", handler.ExportEggs)
		api.GET("/export/expenses.csv", handler.ExportExpenses)

		api.GET("/report/weekly", handler.WeeklyReport)
	}

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
