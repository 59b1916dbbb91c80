package routes

import (
	"log/slog"

	"reminder-bot/config"
	"reminder-bot/controllers"
	"reminder-bot/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	HTTP      config.HTTPConfig
	Runner    controllers.ReminderRunner
	Previewer controllers.CandidatePreviewer
	Audit     controllers.AuditReader
	Logger    *slog.Logger
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(config.PerformanceLogger(deps.Logger))

	r.GET("/healthz", controllers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !deps.HTTP.AdminEnabled() {
		deps.Logger.Info("Admin API disabled; set JWT_SECRET and ADMIN_PASSWORD_HASH to enable it")
		return r
	}

	authController := controllers.AuthController{HTTP: deps.HTTP}
	auth := r.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	runController := controllers.RunController{
		Runner: deps.Runner,
		Audit:  deps.Audit,
		Logger: deps.Logger,
	}
	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(deps.HTTP.JWTSecret))
	{
		runs := api.Group("/runs")
		{
			runs.GET("/last", runController.GetLastRun)
			runs.POST("", runController.TriggerRun)
		}

		api.GET("/logs", runController.GetRecentLogs)

		// Dashboard routes
		dashboardController := controllers.DashboardController{
			Runner:    deps.Runner,
			Previewer: deps.Previewer,
		}
		api.GET("/dashboard", dashboardController.GetDashboardOverview)
	}

	return r
}
