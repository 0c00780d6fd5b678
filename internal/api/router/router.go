package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wakeup-schedule/config"
	"wakeup-schedule/internal/api/handler"
	"wakeup-schedule/internal/api/middleware"
	"wakeup-schedule/pkg/jwt"
	"wakeup-schedule/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20

	// 导入会访问外部接口，按用户单独限流
	importRateLimit  = 5
	importRateWindow = time.Minute

	// 群视图一次读取大量课表
	groupRateLimit  = 30
	groupRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil，此时不做限流与令牌吊销检查
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 用户课表与状态
		users := v1.Group("/users/:user_id")
		{
			users.POST("/schedule/import", middleware.RateLimit(rdb, importRateLimit, importRateWindow), h.Schedule.ImportSchedule)
			users.DELETE("/schedule", h.Schedule.ClearSchedule)
			users.GET("/schedule/info", h.Schedule.GetInfo)
			users.GET("/schedule/day", h.Schedule.ListDay)
			users.GET("/schedule/export.ics", h.Export.ExportICS)
			users.GET("/schedule/export.xlsx", h.Export.ExportWeekXLSX)

			users.PUT("/profile/nickname", h.Schedule.SetNickname)
			users.PUT("/profile/signature", h.Schedule.SetSignature)

			users.GET("/status", h.Status.GetStatus)
			users.PUT("/skip", h.Status.SetSkip)

			users.POST("/conversation/prompt", h.Conversation.BeginPrompt)
			users.POST("/conversation/messages", middleware.RateLimit(rdb, importRateLimit*4, importRateWindow), h.Conversation.HandleMessage)
		}

		// 群视图
		v1.POST("/status/batch", middleware.RateLimit(rdb, groupRateLimit, groupRateWindow), h.Status.BatchStatus)

		groups := v1.Group("/groups/:group_id")
		{
			groups.GET("/status", middleware.RateLimit(rdb, groupRateLimit, groupRateWindow), h.Group.GetGroupStatus)
			groups.PUT("/members", middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleAdapter), h.Group.SyncMembers)
		}
	}

	return r
}
