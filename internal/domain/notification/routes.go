package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the notification endpoints on an admin-scoped group.
func RegisterRoutes(admin *gin.RouterGroup, handler *Handler) {
	notifGroup := admin.Group("/notifications")
	{
		notifGroup.GET("", handler.GetNotifications)
		notifGroup.GET("/count", handler.GetUnreadCount)
		notifGroup.PATCH("/:id/read", handler.MarkAsRead)
		notifGroup.POST("/read-all", handler.MarkAllAsRead)
		notifGroup.POST("", handler.CreateNotification)
	}
}
