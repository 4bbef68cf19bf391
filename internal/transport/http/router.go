package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailtriage/backend/internal/config"
	"mailtriage/backend/internal/health"
	"mailtriage/backend/internal/middleware"
	"mailtriage/backend/internal/monitoring"
	"mailtriage/backend/internal/service"
	"mailtriage/backend/internal/websocket"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	messages  *service.MessageService
	lifecycle *service.LifecycleService
	ingest    *service.IngestService
	settings  *service.SettingsService
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config           *config.Config
	MessageService   *service.MessageService
	LifecycleService *service.LifecycleService
	IngestService    *service.IngestService
	SettingsService  *service.SettingsService
	HealthChecker    *health.HealthChecker
	Metrics          *monitoring.Metrics
	WebSocketHub     *websocket.Hub
	Logger           *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	mm := middleware.NewMonitoringMiddleware(deps.Metrics, deps.Logger)
	router.Use(mm.PanicRecovery())
	router.Use(mm.HTTPMetrics())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())

	// 全局请求体大小限制 1MB（本服务没有大负载端点）
	router.Use(middleware.RequestSizeLimit(1 * 1024 * 1024))

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	handler := &Handler{
		messages:  deps.MessageService,
		lifecycle: deps.LifecycleService,
		ingest:    deps.IngestService,
		settings:  deps.SettingsService,
	}

	// 健康检查与指标
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.HealthChecker.CheckHealth())
	})
	router.GET("/health/live", gin.WrapH(deps.HealthChecker.Handler()))
	router.GET("/health/ready", gin.WrapH(deps.HealthChecker.Handler()))
	router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))

	// V1 API
	v1 := router.Group("/v1")
	{
		// ========== Ingest Routes ==========
		v1.POST("/ingest", handler.runIngest) // 立即摄取一轮

		// ========== Message Routes ==========
		messageRoutes := v1.Group("/messages")
		{
			messageRoutes.GET("", handler.listMessages)         // 邮件列表（可按标签过滤）
			messageRoutes.DELETE("", handler.deleteAllMessages) // 清空邮件
			messageRoutes.GET("/:id", handler.getMessage)       // 邮件详情
			messageRoutes.DELETE("/:id", handler.deleteMessage)

			messageRoutes.POST("/:id/classify", handler.classifyMessage) // 重新分类
			messageRoutes.GET("/:id/action", handler.getMessageAction)   // 路由动作

			// 草稿与发送
			messageRoutes.POST("/:id/draft", handler.draftMessage)         // 生成草稿
			messageRoutes.PUT("/:id/draft", handler.saveDraft)             // 保存编辑后的草稿
			messageRoutes.POST("/:id/draft/rewrite", handler.rewriteDraft) // 语气改写
			messageRoutes.POST("/:id/send", handler.sendMessage)           // 发送草稿
		}

		// 发送流水
		v1.GET("/sent", handler.listSentMessages)

		// ========== Reminder Routes ==========
		reminderRoutes := v1.Group("/reminders")
		{
			reminderRoutes.POST("", handler.createReminder)
			reminderRoutes.GET("", handler.listReminders)
			reminderRoutes.POST("/:id/toggle", handler.toggleReminder) // done -> removed
		}

		// ========== Meeting Routes ==========
		meetingRoutes := v1.Group("/meetings")
		{
			meetingRoutes.POST("", handler.createMeeting)
			meetingRoutes.GET("", handler.listMeetings)
			meetingRoutes.GET("/availability", handler.listAvailability) // 日历占用查询
			meetingRoutes.POST("/:id/toggle", handler.toggleMeeting)
		}

		// ========== Settings Routes ==========
		settingsRoutes := v1.Group("/settings")
		{
			settingsRoutes.GET("/monitored", handler.getMonitored)
			settingsRoutes.PUT("/monitored", handler.setMonitored)
		}

		// ========== WebSocket Routes ==========
		if deps.WebSocketHub != nil {
			v1.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
		}
	}

	return router
}
