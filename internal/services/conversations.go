package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
)

// epoch stands in for a null last_read_at: a participant who never read the
// conversation counts every message as unread.
var epoch = time.Unix(0, 0).UTC()

// ConversationSummary is one row of a conversation listing, with the
// denormalized activity fields the portals render.
type ConversationSummary struct {
	ID             string                    `json:"id"`
	Subject        string                    `json:"subject"`
	Type           string                    `json:"type"`
	Status         models.ConversationStatus `json:"status"`
	CreatedByID    string                    `json:"createdById"`
	CreatedByRole  models.ParticipantRole    `json:"createdByRole"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
	MessageCount   int64                     `json:"messageCount"`
	LastMessage    *string                   `json:"lastMessage"`
	LastSenderType *string                   `json:"lastSenderType"`
	LastMessageAt  *time.Time                `json:"lastMessageAt"`
	UnreadCount    int64                     `json:"unreadCount"`
}

const conversationSummaryColumns = `
	c.id, c.subject, c.type, c.status, c.created_by_id, c.created_by_role, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count,
	(SELECT m.body FROM messages m WHERE m.conversation_id = c.id ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_message,
	(SELECT m.sender_role FROM messages m WHERE m.conversation_id = c.id ORDER BY m.created_at DESC, m.id DESC LIMIT 1) AS last_sender_type,
	(SELECT MAX(m.created_at) FROM messages m WHERE m.conversation_id = c.id) AS last_message_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND m.created_at > COALESCE(cp.last_read_at, ?)) AS unread_count`

const conversationActivityOrder = `
	ORDER BY COALESCE((SELECT MAX(m.created_at) FROM messages m WHERE m.conversation_id = c.id), c.created_at) DESC`

// CreateConversation inserts the conversation and all participant rows as a
// unit: if any participant insert fails, the conversation is rolled back and
// never becomes visible.
func CreateConversation(subject, convType string, creatorID string, creatorRole models.ParticipantRole, participants []models.ConversationParticipant) (*models.Conversation, error) {
	conversation := &models.Conversation{
		Subject:       subject,
		Type:          convType,
		Status:        models.ConversationOpen,
		CreatedByID:   creatorID,
		CreatedByRole: creatorRole,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conversation).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ConversationID = conversation.ID
			if err := tx.Create(&participants[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// IsParticipant is the sole authorization check before any read or write of
// a conversation's messages.
func IsParticipant(conversationID, id string, role models.ParticipantRole) bool {
	var count int64
	database.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND participant_id = ? AND participant_role = ?", conversationID, id, role).
		Count(&count)
	return count > 0
}

// ListParticipants returns all participant rows for a conversation.
func ListParticipants(conversationID string) []models.ConversationParticipant {
	var participants []models.ConversationParticipant
	database.DB.Where("conversation_id = ?", conversationID).Find(&participants)
	return participants
}

// CreateMessage persists the message and bumps the parent conversation's
// updated_at in the same transaction so activity ordering stays correct.
// Content validation happens at the orchestration layer; this only enforces
// referential integrity.
func CreateMessage(conversationID, senderID string, senderRole models.ParticipantRole, body, messageType string) (*models.Message, error) {
	if messageType == "" {
		messageType = "text"
	}
	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Body:           body,
		MessageType:    messageType,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// MarkConversationRead stamps last_read_at = now for the caller's
// participant row. Idempotent.
func MarkConversationRead(conversationID, participantID string, role models.ParticipantRole) error {
	err := database.DB.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND participant_id = ? AND participant_role = ?", conversationID, participantID, role).
		Update("last_read_at", time.Now()).Error
	if err == nil {
		_ = database.CacheDel(database.UnreadCountKey(participantID, string(role)))
	}
	return err
}

// UnreadConversationCount counts open conversations holding at least one
// message newer than the participant's last_read_at (null treated as epoch).
func UnreadConversationCount(participantID string, role models.ParticipantRole) int64 {
	var count int64
	database.DB.Raw(`
		SELECT COUNT(*)
		FROM conversations c
		JOIN conversation_participants cp
		  ON cp.conversation_id = c.id AND cp.participant_id = ? AND cp.participant_role = ?
		WHERE c.status = ?
		  AND EXISTS (
			SELECT 1 FROM messages m
			WHERE m.conversation_id = c.id AND m.created_at > COALESCE(cp.last_read_at, ?)
		  )`,
		participantID, role, models.ConversationOpen, epoch,
	).Scan(&count)
	return count
}

// ListConversations returns the caller's conversations ordered by most
// recent activity, newest first, falling back to creation time for empty
// conversations. Archived conversations are excluded unless explicitly
// requested via status.
func ListConversations(participantID string, role models.ParticipantRole, limit, offset int, status string) ([]ConversationSummary, error) {
	query := "SELECT" + conversationSummaryColumns + `
	FROM conversations c
	JOIN conversation_participants cp
	  ON cp.conversation_id = c.id AND cp.participant_id = ? AND cp.participant_role = ?`

	args := []interface{}{epoch, participantID, role}
	if status != "" {
		query += " WHERE c.status = ?"
		args = append(args, status)
	} else {
		query += " WHERE c.status <> ?"
		args = append(args, models.ConversationArchived)
	}
	query += conversationActivityOrder + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var summaries []ConversationSummary
	if err := database.DB.Raw(query, args...).Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// ListAllConversations is the admin variant, unscoped by participant. Unread
// counts are computed against the viewing admin's own participant rows when
// present.
func ListAllConversations(adminID string, limit, offset int, status string) ([]ConversationSummary, error) {
	query := "SELECT" + conversationSummaryColumns + `
	FROM conversations c
	LEFT JOIN conversation_participants cp
	  ON cp.conversation_id = c.id AND cp.participant_id = ? AND cp.participant_role = ?`

	args := []interface{}{epoch, adminID, models.RoleAdmin}
	if status != "" {
		query += " WHERE c.status = ?"
		args = append(args, status)
	} else {
		query += " WHERE c.status <> ?"
		args = append(args, models.ConversationArchived)
	}
	query += conversationActivityOrder + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var summaries []ConversationSummary
	if err := database.DB.Raw(query, args...).Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// MessageView is a message plus the denormalized sender display name.
type MessageView struct {
	models.Message
	SenderName string `json:"sender_name"`
}

// ListMessages returns a conversation's messages oldest first, with sender
// names resolved per role.
func ListMessages(conversationID string, limit, offset int) ([]MessageView, error) {
	var messages []models.Message
	q := database.DB.
		Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}

	names := make(map[string]string)
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		cacheKey := string(m.SenderRole) + ":" + m.SenderID
		name, ok := names[cacheKey]
		if !ok {
			name = ResolveSenderName(m.SenderID, m.SenderRole)
			names[cacheKey] = name
		}
		views = append(views, MessageView{Message: m, SenderName: name})
	}
	return views, nil
}

// NormalizeBody trims the message body; empty output means the post must be
// rejected before persistence.
func NormalizeBody(body string) string {
	return strings.TrimSpace(body)
}
