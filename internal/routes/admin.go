package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/handlers"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/middleware"
)

// RegisterAdminRoutes wires the back-office surface: conversation oversight,
// template CRUD, compose, activity log and scheduled sends.
func RegisterAdminRoutes(r gin.IRouter, conversations *handlers.ConversationHandler, compose *handlers.ComposeHandler) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/conversations", conversations.ListAllConversations)
		admin.PUT("/conversations/:id/status", conversations.UpdateStatus)

		admin.GET("/templates", handlers.ListTemplates)
		admin.POST("/templates", handlers.CreateTemplate)
		admin.GET("/templates/:id", handlers.GetTemplate)
		admin.PUT("/templates/:id", handlers.UpdateTemplate)
		admin.DELETE("/templates/:id", handlers.DeleteTemplate)

		admin.POST("/compose", compose.Compose)
		admin.GET("/activity-log", handlers.ActivityLog)
		admin.GET("/activity-log/:id", handlers.RecipientActivityLog)
		admin.GET("/scheduled", handlers.ListScheduled)
		admin.DELETE("/scheduled/:id", handlers.CancelScheduled)
	}
}
