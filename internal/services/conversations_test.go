package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
)

func seedConversation(t *testing.T, subject string, creatorID string, creatorRole models.ParticipantRole, others ...models.ConversationParticipant) *models.Conversation {
	t.Helper()
	participants := append([]models.ConversationParticipant{
		{ParticipantID: creatorID, ParticipantRole: creatorRole},
	}, others...)
	conversation, err := CreateConversation(subject, "direct", creatorID, creatorRole, participants)
	assert.NoError(t, err)
	return conversation
}

func seedMessage(t *testing.T, conversationID, senderID string, senderRole models.ParticipantRole, body string, at time.Time) *models.Message {
	t.Helper()
	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     senderRole,
		Body:           body,
		MessageType:    "text",
		CreatedAt:      at,
	}
	assert.NoError(t, database.DB.Create(message).Error)
	return message
}

func TestListConversations_OrderedByActivityNewestFirst(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "u1", Name: "Pat", Email: "pat@example.com"})

	now := time.Now()
	older := seedConversation(t, "Older", "u1", models.RoleUser)
	newer := seedConversation(t, "Newer", "u1", models.RoleUser)
	empty := seedConversation(t, "Empty", "u1", models.RoleUser)

	seedMessage(t, older.ID, "u1", models.RoleUser, "first", now.Add(-2*time.Hour))
	seedMessage(t, newer.ID, "u1", models.RoleUser, "second", now.Add(-time.Hour))

	// the empty conversation was created last, so creation time wins
	summaries, err := ListConversations("u1", models.RoleUser, 20, 0, "")
	assert.NoError(t, err)
	assert.Len(t, summaries, 3)
	assert.Equal(t, empty.ID, summaries[0].ID)
	assert.Equal(t, newer.ID, summaries[1].ID)
	assert.Equal(t, older.ID, summaries[2].ID)

	assert.Equal(t, int64(0), summaries[0].MessageCount)
	assert.Nil(t, summaries[0].LastMessage)
	assert.Equal(t, int64(1), summaries[1].MessageCount)
	assert.Equal(t, "second", *summaries[1].LastMessage)
	assert.Equal(t, "user", *summaries[1].LastSenderType)
}

func TestListConversations_UnreadCountsTreatNullLastReadAsEverything(t *testing.T) {
	setupTestDB(t)

	conversation := seedConversation(t, "Support", "u1", models.RoleUser,
		models.ConversationParticipant{ParticipantID: "adm1", ParticipantRole: models.RoleAdmin})

	now := time.Now()
	seedMessage(t, conversation.ID, "u1", models.RoleUser, "one", now.Add(-3*time.Hour))
	seedMessage(t, conversation.ID, "u1", models.RoleUser, "two", now.Add(-2*time.Hour))

	summaries, err := ListConversations("adm1", models.RoleAdmin, 20, 0, "")
	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].UnreadCount)

	assert.NoError(t, MarkConversationRead(conversation.ID, "adm1", models.RoleAdmin))

	summaries, err = ListConversations("adm1", models.RoleAdmin, 20, 0, "")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), summaries[0].UnreadCount)
}

func TestListConversations_StatusFilter(t *testing.T) {
	setupTestDB(t)

	open := seedConversation(t, "Open", "u1", models.RoleUser)
	archived := seedConversation(t, "Archived", "u1", models.RoleUser)
	database.DB.Model(&models.Conversation{}).Where("id = ?", archived.ID).
		Update("status", models.ConversationArchived)

	summaries, err := ListConversations("u1", models.RoleUser, 20, 0, "")
	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, open.ID, summaries[0].ID)

	summaries, err = ListConversations("u1", models.RoleUser, 20, 0, string(models.ConversationArchived))
	assert.NoError(t, err)
	assert.Len(t, summaries, 1)
	assert.Equal(t, archived.ID, summaries[0].ID)
}

func TestUnreadConversationCount_ExcludesClosedConversations(t *testing.T) {
	setupTestDB(t)

	conversation := seedConversation(t, "Support", "u1", models.RoleUser,
		models.ConversationParticipant{ParticipantID: "adm1", ParticipantRole: models.RoleAdmin})
	seedMessage(t, conversation.ID, "u1", models.RoleUser, "hello", time.Now().Add(-time.Hour))

	assert.Equal(t, int64(1), UnreadConversationCount("adm1", models.RoleAdmin))

	database.DB.Model(&models.Conversation{}).Where("id = ?", conversation.ID).
		Update("status", models.ConversationClosed)
	assert.Equal(t, int64(0), UnreadConversationCount("adm1", models.RoleAdmin))
}

func TestMarkConversationRead_Idempotent(t *testing.T) {
	setupTestDB(t)

	conversation := seedConversation(t, "Support", "u1", models.RoleUser,
		models.ConversationParticipant{ParticipantID: "adm1", ParticipantRole: models.RoleAdmin})
	seedMessage(t, conversation.ID, "u1", models.RoleUser, "hello", time.Now().Add(-time.Hour))

	assert.NoError(t, MarkConversationRead(conversation.ID, "adm1", models.RoleAdmin))
	assert.Equal(t, int64(0), UnreadConversationCount("adm1", models.RoleAdmin))

	assert.NoError(t, MarkConversationRead(conversation.ID, "adm1", models.RoleAdmin))
	assert.Equal(t, int64(0), UnreadConversationCount("adm1", models.RoleAdmin))

	seedMessage(t, conversation.ID, "u1", models.RoleUser, "another", time.Now().Add(time.Second))
	assert.Equal(t, int64(1), UnreadConversationCount("adm1", models.RoleAdmin))
}

func TestListAllConversations_UnscopedForAdmins(t *testing.T) {
	setupTestDB(t)

	seedConversation(t, "Driver thread", "drv1", models.RoleDriver)
	seedConversation(t, "Customer thread", "u1", models.RoleUser)

	summaries, err := ListAllConversations("adm1", 20, 0, "")
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestListMessages_ResolvesSenderNamesWithFallback(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.Driver{ID: "drv1", Name: "Test Driver"})

	conversation := seedConversation(t, "Route help", "drv1", models.RoleDriver,
		models.ConversationParticipant{ParticipantID: "adm1", ParticipantRole: models.RoleAdmin})

	now := time.Now()
	seedMessage(t, conversation.ID, "drv1", models.RoleDriver, "first", now.Add(-2*time.Hour))
	seedMessage(t, conversation.ID, "adm1", models.RoleAdmin, "second", now.Add(-time.Hour))

	views, err := ListMessages(conversation.ID, 20, 0)
	assert.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, "first", views[0].Body)
	assert.Equal(t, "Test Driver", views[0].SenderName)
	// adm1 has no user row, so the role fallback label applies
	assert.Equal(t, "Support Team", views[1].SenderName)
}

func TestNormalizeBody(t *testing.T) {
	assert.Equal(t, "hello", NormalizeBody("  hello \n"))
	assert.Equal(t, "", NormalizeBody(" \t\n "))
}
