package router

import (
	"github.com/dlist/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
// templateGlob/staticDir 为空时跳过对应加载，便于测试
func SetupRouter(api *handler.API, sessionSecret, templateGlob, staticDir string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("dlist_session", store))
	r.Use(handler.CurrentUser())

	if templateGlob != "" {
		r.LoadHTMLGlob(templateGlob)
	}
	if staticDir != "" {
		r.Static("/static", staticDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 页面路由
	r.GET("/", api.ShowLauncher)
	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.GET("/logout", handler.Logout)
	r.GET("/dashboard", handler.AuthRequired(), api.ShowDashboard)

	// API 路由
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/dashboard", api.GetDashboard)
		apiGroup.PUT("/selection", api.SaveSelection)
		apiGroup.POST("/tags/toggle", api.ToggleVisibleTag)
		apiGroup.POST("/tags/all", api.ToggleAllVisibleTags)

		// 需要认证的 API 路由
		auth := apiGroup.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.POST("/games/toggle", api.TogglePlayed)
			auth.POST("/routine", api.StartRoutine)
		}
	}

	return r
}
