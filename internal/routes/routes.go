package routes

import (
	"net/http"

	"projchat_backend/internal/auth"
	"projchat_backend/internal/handlers"
	"projchat_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires every HTTP route onto the engine.
func RegisterRoutes(
	router *gin.Engine,
	tokens *auth.TokenManager,
	chat *handlers.ChatHandler,
	stream *handlers.SSEHandler,
	heartbeat *handlers.HeartbeatHandler,
) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(tokens))
	{
		api.POST("/messages", chat.SendMessage)
		api.PUT("/messages/:messageId", chat.EditMessage)
		api.DELETE("/messages/:messageId", chat.DeleteMessage)
		api.GET("/messages/:messageId/seen-by", chat.SeenBy)

		api.GET("/projects/:projectId/messages", chat.FetchMessages)
		api.GET("/projects/:projectId/messages/earlier", chat.FetchEarlier)
		api.GET("/projects/:projectId/messages/search", chat.SearchMessages)
		api.GET("/projects/:projectId/unread-count", chat.UnreadCount)
		api.POST("/projects/:projectId/seen-all", chat.MarkAllSeen)
		api.GET("/projects/:projectId/export", chat.ExportChat)
		api.GET("/projects/:projectId/stream", stream.Stream)

		api.POST("/seen", chat.MarkSeen)
		api.POST("/typing", chat.Typing)
		api.POST("/file-activity", chat.ReportFileActivity)
		api.GET("/badge-count", chat.BadgeCount)
		api.POST("/heartbeat", heartbeat.Heartbeat)
	}
}
