package classroom

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davinwzy/growth-lab/internal/config"
)

// RegisterRoutes mounts the classroom API on the given router.
func RegisterRoutes(router *gin.Engine, handler *Handler, metricsCfg *config.MetricsConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	if metricsCfg != nil && metricsCfg.Prometheus.Enabled {
		path := metricsCfg.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")

	students := api.Group("/students")
	{
		students.POST("/:id/score", handler.ApplyScore)
		students.POST("/:id/redeem", handler.RedeemReward)
		students.GET("/:id/stats", handler.GetStudentStats)
		students.POST("/:id/attendance", handler.CheckIn)
		students.GET("/:id/attendance", handler.GetAttendance)
		students.DELETE("/:id/attendance", handler.RevokeAttendance)
		students.POST("/:id/attendance/makeup", handler.Makeup)
	}

	groups := api.Group("/groups")
	{
		groups.POST("/:id/score", handler.ApplyGroupScore)
		groups.POST("/:id/redeem", handler.RedeemGroupReward)
		groups.POST("/:id/settle", handler.SettleGroup)
	}

	classrooms := api.Group("/classrooms")
	{
		classrooms.GET("/:id/history", handler.GetHistory)
		classrooms.GET("/:id/leaderboard", handler.GetLeaderboard)
		classrooms.GET("/:id/exemptions", handler.GetExemptions)
		classrooms.POST("/:id/exemptions", handler.AddExemption)
		classrooms.DELETE("/:id/exemptions", handler.RemoveExemption)
	}

	api.POST("/history/:id/undo", handler.Undo)
	api.GET("/badges", handler.GetBadgeCatalog)
	api.GET("/catalog/items", handler.GetScoreItems)
	api.GET("/catalog/rewards", handler.GetRewards)
	api.GET("/levels", handler.GetLevels)
}
