package app

import (
	"testhub_backend/docs"
	"testhub_backend/internal/config"
	"testhub_backend/internal/middleware"
	"testhub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerRecordRoutes(authGroup, c)

		// 3. 教职人员与超级管理员
		manage := authGroup.Group("/manage")
		manage.Use(middleware.StaffOnly())
		a.registerManageRoutes(manage, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/home", c.test.Home)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.user.GetProfile)
	rg.PUT("/profile/password", c.user.ChangePassword)
	rg.DELETE("/profile", c.user.DeleteAccount)

	rg.GET("/dashboard", c.dashboard.GetDashboard)
	rg.GET("/categories", c.category.ListCategories)

	rg.GET("/tests", c.test.ListTests)
	rg.GET("/tests/:id", c.test.GetTest)
	rg.GET("/tests/:id/take", c.test.TakeTest)
	rg.POST("/tests/:id/submit", c.attempt.Submit)
	rg.GET("/results/:id", c.attempt.GetResult)
}

func (a *App) registerRecordRoutes(rg *gin.RouterGroup, c *controllers) {
	records := rg.Group("/records")
	{
		records.GET("/categories", c.record.Categories)
		records.GET("/tests/:id", c.record.Test)
		records.GET("/attempts/:id", c.record.Attempt)
	}
}

func (a *App) registerManageRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/categories", c.category.CreateCategory)
	rg.POST("/tests", c.test.CreateTest)
	rg.GET("/tests/:id", c.test.ManageTest)
	rg.POST("/tests/:id/questions", c.question.AddQuestion)
	rg.POST("/tests/:id/questions/bulk", c.question.BulkImport)
	rg.POST("/tests/:id/toggle-status", c.test.ToggleStatus)
	rg.DELETE("/questions/:id", c.question.DeleteQuestion)

	// 仅超级管理员
	admin := rg.Group("")
	admin.Use(middleware.SuperuserOnly())
	{
		admin.DELETE("/categories/:id", c.category.DeleteCategory)
		admin.DELETE("/tests/:id", c.test.DeleteTest)
	}
}
