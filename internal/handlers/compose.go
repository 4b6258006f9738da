package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/services"
)

// ComposeHandler exposes the admin notification surface: immediate and
// scheduled multi-recipient sends.
type ComposeHandler struct {
	Notifier *services.Notifier
}

func NewComposeHandler(notifier *services.Notifier) *ComposeHandler {
	return &ComposeHandler{Notifier: notifier}
}

// Compose POST /admin/compose: sends now or records scheduled entries.
func (h *ComposeHandler) Compose(c *gin.Context) {
	var req struct {
		RecipientIDs  []string          `json:"recipientIds"`
		RecipientType string            `json:"recipientType"`
		Channel       string            `json:"channel"`
		Subject       string            `json:"subject"`
		Body          string            `json:"body"`
		Variables     map[string]string `json:"variables"`
		ScheduledFor  string            `json:"scheduledFor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if len(req.RecipientIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one recipient is required"})
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message body is required"})
		return
	}

	channel := models.CommChannel(req.Channel)
	if !channel.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel must be email or sms"})
		return
	}

	recipientRole := models.ParticipantRole(req.RecipientType)
	if req.RecipientType == "" {
		recipientRole = models.RoleUser
	}
	if !recipientRole.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Recipient type must be user, driver or admin"})
		return
	}

	senderID := c.GetString("userId")

	var scheduledFor *time.Time
	if req.ScheduledFor != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledFor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduledFor must be an RFC3339 timestamp"})
			return
		}
		if !parsed.After(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduledFor must be in the future"})
			return
		}
		scheduledFor = &parsed
	}

	requests := make([]services.DispatchRequest, 0, len(req.RecipientIDs))
	for _, id := range req.RecipientIDs {
		requests = append(requests, services.DispatchRequest{
			RecipientID:   id,
			RecipientRole: recipientRole,
			Channel:       channel,
			Subject:       req.Subject,
			Body:          req.Body,
			Vars:          req.Variables,
			SenderID:      senderID,
		})
	}

	if scheduledFor != nil {
		scheduled := 0
		for _, r := range requests {
			if _, err := h.Notifier.LogScheduled(r, *scheduledFor); err == nil {
				scheduled++
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "scheduled": scheduled})
		return
	}

	result := h.Notifier.SendToAll(requests)
	c.JSON(http.StatusOK, gin.H{"success": true, "sent": result.Sent, "failed": result.Failed})
}

// ActivityLog GET /admin/activity-log: paginated, filterable by channel.
func ActivityLog(c *gin.Context) {
	limit, offset := pagination(c)

	q := database.DB.Model(&models.CommunicationLog{}).Order("created_at desc")
	if channel := c.Query("channel"); channel != "" {
		q = q.Where("channel = ?", channel)
	}

	var entries []models.CommunicationLog
	if err := q.Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// RecipientActivityLog GET /admin/activity-log/:id: one recipient's history.
func RecipientActivityLog(c *gin.Context) {
	limit, offset := pagination(c)

	q := database.DB.Model(&models.CommunicationLog{}).
		Where("recipient_id = ?", c.Param("id")).
		Order("created_at desc")
	if channel := c.Query("channel"); channel != "" {
		q = q.Where("channel = ?", channel)
	}

	var entries []models.CommunicationLog
	if err := q.Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ListScheduled GET /admin/scheduled: pending scheduled sends, soonest first.
func ListScheduled(c *gin.Context) {
	var entries []models.CommunicationLog
	err := database.DB.
		Where("status = ?", models.CommStatusScheduled).
		Order("scheduled_for asc").
		Find(&entries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch scheduled sends"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduled": entries})
}

// CancelScheduled DELETE /admin/scheduled/:id: compare-and-set on status.
// An entry the sweeper already sent (or one already cancelled) reports not
// found rather than transitioning twice.
func CancelScheduled(c *gin.Context) {
	if !services.CancelScheduled(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scheduled send not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
