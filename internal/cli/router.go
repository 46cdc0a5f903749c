package cli

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/village-api/api/swagger"
	"github.com/noah-isme/village-api/internal/handler"
	"github.com/noah-isme/village-api/internal/middleware"
	"github.com/noah-isme/village-api/pkg/config"
	"github.com/noah-isme/village-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/village-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/village-api/pkg/middleware/requestid"
)

func newRouter(a *app) *gin.Engine {
	if a.cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(a.metrics))

	metricsHandler := handler.NewMetricsHandler(a.metrics, a.persister)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	classHandler := handler.NewClassHandler(a.village)
	studentHandler := handler.NewStudentHandler(a.village, a.exports)
	taskHandler := handler.NewTaskHandler(a.village)
	dashboardHandler := handler.NewDashboardHandler(a.village)
	payrollHandler := handler.NewPayrollHandler(a.village)
	backupHandler := handler.NewBackupHandler(a.backup)

	api := r.Group(a.cfg.APIPrefix)
	api.GET("/classes", classHandler.List)

	class := api.Group("/classes/:classId")
	class.GET("/snapshot", classHandler.ExportSnapshot)
	class.PUT("/snapshot", classHandler.ImportSnapshot)
	class.GET("/settings", classHandler.GetSettings)
	class.PUT("/settings", classHandler.UpdateSettings)
	class.GET("/currency", classHandler.Currency)

	class.GET("/students", studentHandler.List)
	class.POST("/students", studentHandler.Create)
	student := class.Group("/students/:studentId")
	student.PUT("", studentHandler.Update)
	student.PUT("/group", studentHandler.AssignGroup)
	student.GET("/passport", studentHandler.Passport)
	student.GET("/passbook", studentHandler.Passbook)
	student.POST("/transactions", studentHandler.Transaction)
	student.POST("/transactions/:txId/undo", studentHandler.Undo)
	student.POST("/purchases", studentHandler.Purchase)
	student.POST("/inventory/:inventoryId/use", studentHandler.UseItem)

	class.GET("/tasks", dashboardHandler.Tasks)
	class.POST("/tasks", taskHandler.Create)
	class.DELETE("/logs/:date/tasks/:taskId", taskHandler.Delete)
	class.POST("/status", taskHandler.ToggleStatus)
	class.GET("/dashboard", dashboardHandler.Dashboard)

	class.POST("/payroll", payrollHandler.Process)
	class.POST("/payroll/run", payrollHandler.Run)
	class.POST("/behavior", payrollHandler.Behavior)

	class.POST("/backup/upload", backupHandler.Upload)
	class.POST("/backup/download", backupHandler.Download)

	return r
}
