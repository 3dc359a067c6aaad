package app

import (
	"quiz_platform_backend/docs"
	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/middleware"
	"quiz_platform_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerQuizRoutes(authGroup, c)
		a.registerUserRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		// 分类目录
		public.GET("/categories", c.category.ListCategories)
		public.GET("/categories/:id/subcategories", c.category.ListSubcategories)
		public.GET("/category-groups", c.category.ListGroups)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	quiz := rg.Group("/quiz")
	{
		quiz.POST("/generate", c.quiz.Generate)
		quiz.POST("/:id/start", c.quiz.Start)
	}

	attempt := rg.Group("/attempt")
	{
		attempt.GET("/:id/details", c.attempt.Details)
		attempt.POST("/:id/answer", c.attempt.Answer)
		attempt.POST("/:id/finish", c.attempt.Finish)
		attempt.GET("/:id/analytics", c.attempt.Analytics)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/user/dashboard", c.analytics.GetDashboard)
	rg.GET("/user/progress", c.analytics.GetProgress)
	rg.GET("/user/analytics", c.analytics.GetUserAnalytics)
	rg.GET("/leaderboard", c.analytics.GetLeaderboard)
}
