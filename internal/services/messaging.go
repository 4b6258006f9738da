package services

import (
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/realtime"
	apperrors "github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/errors"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

// Default subjects for support conversations started without one.
const (
	DriverSupportSubject   = "Driver Support Request"
	CustomerSupportSubject = "Customer Support Request"
	AdminSupportSubject    = "Support Conversation"
)

// Content for cross-role message notification emails. Unknown placeholders
// would survive rendering, so the variable set here is fixed.
const (
	messageEmailSubject = "New message from {{senderName}}"
	messageEmailBody    = "{{senderName}} sent you a new message:\n\n{{body}}\n\nLog in to the portal to view and reply."
)

// Messenger ties persistence, the realtime broadcaster and the notification
// dispatcher together into the post-message and start-conversation flows.
type Messenger struct {
	Broadcaster *realtime.Broadcaster
	Notifier    *Notifier
}

func NewMessenger(broadcaster *realtime.Broadcaster, notifier *Notifier) *Messenger {
	return &Messenger{Broadcaster: broadcaster, Notifier: notifier}
}

// PostMessage implements the message-post flow: authorize, validate, persist,
// mark read for the sender, broadcast to all participants (the sender's other
// sessions included), then notify cross-role participants by email without
// blocking the caller. Returns the message and the resolved sender name.
func (ms *Messenger) PostMessage(conversationID, senderID string, senderRole models.ParticipantRole, body string) (*models.Message, string, *apperrors.AppError) {
	if !IsParticipant(conversationID, senderID, senderRole) {
		return nil, "", apperrors.Forbidden("You are not a participant in this conversation")
	}

	body = NormalizeBody(body)
	if body == "" {
		return nil, "", apperrors.BadRequest("Message body is required")
	}

	message, err := CreateMessage(conversationID, senderID, senderRole, body, "text")
	if err != nil {
		logger.Error().Err(err).Str("conversation", conversationID).Msg("failed to persist message")
		return nil, "", apperrors.Internal("Failed to send message")
	}

	// the sender has obviously seen their own message
	if err := MarkConversationRead(conversationID, senderID, senderRole); err != nil {
		logger.Warn().Err(err).Str("conversation", conversationID).Msg("failed to mark conversation read for sender")
	}

	senderName := ResolveSenderName(senderID, senderRole)
	participants := ListParticipants(conversationID)

	ms.fanOut(message, senderName, participants)

	return message, senderName, nil
}

// StartConversation creates a conversation between the initiator and the
// resolved support admin, posts the initial message through the normal path
// and announces the new conversation to the counter-party. No admin
// configured means there is no destination, which is fatal for the request.
func (ms *Messenger) StartConversation(creatorID string, creatorRole models.ParticipantRole, subject, body string) (*models.Conversation, *models.Message, *apperrors.AppError) {
	body = NormalizeBody(body)
	if body == "" {
		return nil, nil, apperrors.BadRequest("Message body is required")
	}

	admin, err := ResolveSupportAdmin()
	if err != nil {
		logger.Error().Err(err).Msg("cannot start conversation without a support admin")
		return nil, nil, apperrors.Internal("Support is not available right now")
	}

	if subject == "" {
		subject = defaultSubjectFor(creatorRole)
	}

	participants := []models.ConversationParticipant{
		{ParticipantID: creatorID, ParticipantRole: creatorRole, Role: "member"},
	}
	if !(admin.ID == creatorID && creatorRole == models.RoleAdmin) {
		participants = append(participants, models.ConversationParticipant{
			ParticipantID: admin.ID, ParticipantRole: models.RoleAdmin, Role: "member",
		})
	}

	conversation, err := CreateConversation(subject, "direct", creatorID, creatorRole, participants)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create conversation")
		return nil, nil, apperrors.Internal("Failed to start conversation")
	}

	message, senderName, appErr := ms.PostMessage(conversation.ID, creatorID, creatorRole, body)
	if appErr != nil {
		return nil, nil, appErr
	}

	payload := map[string]interface{}{
		"conversationId": conversation.ID,
		"subject":        conversation.Subject,
		"body":           message.Body,
		"senderRole":     creatorRole,
		"createdAt":      conversation.CreatedAt,
	}
	switch creatorRole {
	case models.RoleDriver:
		payload["driverName"] = senderName
	case models.RoleAdmin:
		payload["adminName"] = senderName
	default:
		payload["customerName"] = senderName
	}
	ms.Broadcaster.Broadcast([]realtime.Key{{Role: models.RoleAdmin, ID: admin.ID}}, "conversation:new", payload)

	return conversation, message, nil
}

// fanOut broadcasts message:new to every participant key and emails every
// participant whose role differs from the sender's. Email dispatch runs in
// the background: delivery outcome lands in the communication log, never in
// the HTTP response.
func (ms *Messenger) fanOut(message *models.Message, senderName string, participants []models.ConversationParticipant) {
	keys := realtime.KeysFor(participants)
	ms.Broadcaster.Broadcast(keys, "message:new", map[string]interface{}{
		"conversationId": message.ConversationID,
		"id":             message.ID,
		"body":           message.Body,
		"senderId":       message.SenderID,
		"senderRole":     message.SenderRole,
		"senderName":     senderName,
		"createdAt":      message.CreatedAt,
	})

	cacheKeys := make([]string, 0, len(participants))
	for _, p := range participants {
		cacheKeys = append(cacheKeys, database.UnreadCountKey(p.ParticipantID, string(p.ParticipantRole)))
	}
	_ = database.CacheDel(cacheKeys...)

	for _, p := range participants {
		// cross-role policy: drivers are not emailed about driver messages,
		// the counter-party always is
		if p.ParticipantRole == message.SenderRole {
			continue
		}
		go func(participant models.ConversationParticipant) {
			entry := ms.Notifier.SendAndLog(DispatchRequest{
				RecipientID:   participant.ParticipantID,
				RecipientRole: participant.ParticipantRole,
				Channel:       models.ChannelEmail,
				Subject:       messageEmailSubject,
				Body:          messageEmailBody,
				Vars: map[string]string{
					"senderName": senderName,
					"body":       message.Body,
				},
				SenderID: message.SenderID,
			})
			if entry.Status != models.CommStatusSent {
				logger.Warn().
					Str("recipient", participant.ParticipantID).
					Str("conversation", message.ConversationID).
					Str("reason", entry.ErrorMessage).
					Msg("message notification email not delivered")
			}
		}(p)
	}
}

func defaultSubjectFor(role models.ParticipantRole) string {
	switch role {
	case models.RoleDriver:
		return DriverSupportSubject
	case models.RoleAdmin:
		return AdminSupportSubject
	default:
		return CustomerSupportSubject
	}
}
