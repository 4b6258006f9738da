package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/services"
)

// ConversationHandler carries the orchestration dependencies the
// conversation endpoints need.
type ConversationHandler struct {
	Messenger *services.Messenger
}

func NewConversationHandler(messenger *services.Messenger) *ConversationHandler {
	return &ConversationHandler{Messenger: messenger}
}

func callerIdentity(c *gin.Context) (string, models.ParticipantRole) {
	userID := c.MustGet("userId").(string)
	role := models.ParticipantRole(c.GetString("userType"))
	if !role.IsValid() {
		role = models.RoleUser
	}
	return userID, role
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// StartConversation POST /conversations/new
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID, role := callerIdentity(c)

	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	conversation, message, appErr := h.Messenger.StartConversation(userID, role, req.Subject, req.Body)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation": conversation,
		"message":      message,
	})
}

// PostMessage POST /conversations/:id/messages
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	userID, role := callerIdentity(c)
	conversationID := c.Param("id")

	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	message, senderName, appErr := h.Messenger.PostMessage(conversationID, userID, role, req.Body)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          message.ID,
		"body":        message.Body,
		"sender_name": senderName,
		"senderId":    message.SenderID,
		"senderRole":  message.SenderRole,
		"createdAt":   message.CreatedAt,
	})
}

// ListConversations GET /conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, role := callerIdentity(c)
	limit, offset := pagination(c)

	conversations, err := services.ListConversations(userID, role, limit, offset, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// UnreadCount GET /conversations/unread-count
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, role := callerIdentity(c)

	cacheKey := database.UnreadCountKey(userID, string(role))
	var cached int64
	if err := database.CacheGet(cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{"count": cached})
		return
	} else if err != redis.Nil {
		// cache unreachable: fall through to the database
	}

	count := services.UnreadConversationCount(userID, role)
	_ = database.CacheSet(cacheKey, count, 30*time.Second)

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// GetMessages GET /conversations/:id/messages
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	userID, role := callerIdentity(c)
	conversationID := c.Param("id")

	if !services.IsParticipant(conversationID, userID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a participant in this conversation"})
		return
	}

	limit, offset := pagination(c)
	messages, err := services.ListMessages(conversationID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkRead PUT /conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, role := callerIdentity(c)
	conversationID := c.Param("id")

	if !services.IsParticipant(conversationID, userID, role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a participant in this conversation"})
		return
	}

	if err := services.MarkConversationRead(conversationID, userID, role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark conversation read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListAllConversations GET /admin/conversations: unscoped admin listing.
func (h *ConversationHandler) ListAllConversations(c *gin.Context) {
	userID, _ := callerIdentity(c)
	limit, offset := pagination(c)

	conversations, err := services.ListAllConversations(userID, limit, offset, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// UpdateStatus PUT /admin/conversations/:id/status: admin-only lifecycle
// transitions; any of the three states may be set, including reopening.
func (h *ConversationHandler) UpdateStatus(c *gin.Context) {
	conversationID := c.Param("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := models.ConversationStatus(req.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be one of open, closed, archived"})
		return
	}

	res := database.DB.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("status", status)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
