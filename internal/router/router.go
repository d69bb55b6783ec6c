package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/panacea/internal/handler"
)

// Setup 配置 Gin 引擎和路由
func Setup(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("panacea_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", api.Register)
		auth.POST("/login", api.Login)
		auth.POST("/logout", api.Logout)
	}

	// 需要认证的业务路由
	apiGroup := r.Group("/api")
	apiGroup.Use(handler.AuthRequired())
	{
		apiGroup.GET("/me", api.Me)

		apiGroup.GET("/goals", api.ListGoals)
		apiGroup.POST("/goals", api.CreateGoal)
		apiGroup.GET("/goals/:id", api.GetGoal)
		apiGroup.PATCH("/goals/:id/status", api.UpdateGoalStatus)
		apiGroup.DELETE("/goals/:id", api.DeleteGoal)

		apiGroup.POST("/goals/:id/plan", api.GeneratePlan)
		apiGroup.GET("/goals/:id/plan", api.GetPlan)
		apiGroup.GET("/goals/:id/tasks", api.GetGoalTasks)

		apiGroup.GET("/tasks/today", api.GetTasksToday)
		apiGroup.POST("/tasks/:id/postpone", api.PostponeTask)
		apiGroup.POST("/tasks/:id/complete", api.CompleteTask)

		apiGroup.POST("/chat/messages", api.PostChatMessage)
		apiGroup.GET("/chat/history", api.GetChatHistory)

		apiGroup.GET("/settings", api.GetSettings)
		apiGroup.PUT("/settings", api.UpdateSettings)
	}

	return r
}
