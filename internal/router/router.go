package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/hearthpoints/internal/config"
	"github.com/hearthpoints/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, gdb *gorm.DB) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("hearthpoints_session", store))

	api := handler.NewAPI(gdb)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api")
	{
		v1.POST("/session/member", api.ActAsMember)

		v1.GET("/habits", api.ListHabits)
		v1.POST("/habits", api.CreateHabit)
		v1.GET("/habits/:id", api.GetHabit)
		v1.POST("/habits/:id/toggle", api.ToggleHabit)
		v1.POST("/habits/:id/dates", api.ToggleHabitDate)
		v1.PUT("/habits/:id/total", api.AdjustHabitTotal)
		v1.POST("/habits/:id/migrate", api.MigrateHabit)
		v1.POST("/migrate", api.MigrateHousehold)

		v1.GET("/ledger", api.GetLedger)
		v1.GET("/ledger/snapshots", api.GetLedgerSnapshots)

		v1.GET("/settings", api.GetSettings)
		v1.PUT("/settings/favorable", api.SetFavorableCondition)
	}

	return r
}
