package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/handlers"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/middleware"
)

// RegisterConversationRoutes wires the customer/driver messaging surface.
func RegisterConversationRoutes(r gin.IRouter, h *handlers.ConversationHandler) {
	conversations := r.Group("/conversations")
	conversations.Use(middleware.AuthMiddleware())
	{
		conversations.POST("/new", h.StartConversation)
		conversations.GET("", h.ListConversations)
		conversations.GET("/unread-count", h.UnreadCount)
		conversations.GET("/:id/messages", h.GetMessages)
		conversations.POST("/:id/messages", h.PostMessage)
		conversations.PUT("/:id/read", h.MarkRead)
	}
}
