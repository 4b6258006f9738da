package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/realtime"
)

// fakeSession captures broadcast frames in place of a live websocket.
type fakeSession struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSession) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	f.frames = append(f.frames, buf)
	return nil
}

func (f *fakeSession) Close(code int, reason string) {}

func (f *fakeSession) events(t *testing.T) []realtime.Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]realtime.Event, 0, len(f.frames))
	for _, frame := range f.frames {
		var ev realtime.Event
		if err := json.Unmarshal(frame, &ev); err != nil {
			t.Fatalf("bad broadcast frame %q: %v", frame, err)
		}
		out = append(out, ev)
	}
	return out
}

func (f *fakeSession) eventNamed(t *testing.T, name string) (realtime.Event, bool) {
	t.Helper()
	for _, ev := range f.events(t) {
		if ev.Event == name {
			return ev, true
		}
	}
	return realtime.Event{}, false
}

func newTestMessenger() (*Messenger, *realtime.Registry, *mockEmailSender) {
	registry := realtime.NewRegistry()
	email := &mockEmailSender{}
	messenger := NewMessenger(realtime.NewBroadcaster(registry), NewNotifier(email, &mockSMSSender{}))
	return messenger, registry, email
}

func TestStartConversation_DriverGetsDefaultSubjectAndAdminIsNotified(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "adm1", Name: "Support Person", Email: "support@example.com", IsAdmin: true})
	database.DB.Create(&models.Driver{ID: "drv1", Name: "Test Driver", Email: "driver@example.com"})

	messenger, registry, email := newTestMessenger()

	adminSession := &fakeSession{}
	registry.Register(realtime.Key{Role: models.RoleAdmin, ID: "adm1"}, adminSession)

	conversation, message, appErr := messenger.StartConversation(
		"drv1", models.RoleDriver, "", "Hey, I have a question about my route.",
	)
	assert.Nil(t, appErr)
	assert.Equal(t, DriverSupportSubject, conversation.Subject)
	assert.Equal(t, models.ConversationOpen, conversation.Status)
	assert.Equal(t, "Hey, I have a question about my route.", message.Body)

	participants := ListParticipants(conversation.ID)
	assert.Len(t, participants, 2)
	assert.True(t, IsParticipant(conversation.ID, "drv1", models.RoleDriver))
	assert.True(t, IsParticipant(conversation.ID, "adm1", models.RoleAdmin))

	ev, ok := adminSession.eventNamed(t, "conversation:new")
	assert.True(t, ok, "admin session should receive conversation:new")
	data := ev.Data.(map[string]interface{})
	assert.Equal(t, conversation.ID, data["conversationId"])
	assert.Equal(t, "Test Driver", data["driverName"])
	assert.Equal(t, DriverSupportSubject, data["subject"])

	_, ok = adminSession.eventNamed(t, "message:new")
	assert.True(t, ok, "admin session should also receive the initial message")

	// the admin is the only cross-role participant
	assert.Eventually(t, func() bool {
		return len(email.sentTo()) == 1 && email.sentTo()[0] == "support@example.com"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartConversation_CustomerDefaultSubject(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "adm1", Name: "Support", Email: "support@example.com", IsAdmin: true})
	database.DB.Create(&models.User{ID: "u1", Name: "Pat Customer", Email: "pat@example.com"})

	messenger, _, _ := newTestMessenger()
	conversation, _, appErr := messenger.StartConversation("u1", models.RoleUser, "", "My bin was missed.")
	assert.Nil(t, appErr)
	assert.Equal(t, CustomerSupportSubject, conversation.Subject)
}

func TestStartConversation_ExplicitSubjectKept(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "adm1", Name: "Support", Email: "support@example.com", IsAdmin: true})
	database.DB.Create(&models.User{ID: "u1", Name: "Pat", Email: "pat@example.com"})

	messenger, _, _ := newTestMessenger()
	conversation, _, appErr := messenger.StartConversation("u1", models.RoleUser, "Billing question", "Why was I charged twice?")
	assert.Nil(t, appErr)
	assert.Equal(t, "Billing question", conversation.Subject)
}

func TestStartConversation_BlankBodyRejected(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "adm1", Name: "Support", Email: "support@example.com", IsAdmin: true})

	messenger, _, _ := newTestMessenger()
	_, _, appErr := messenger.StartConversation("u1", models.RoleUser, "", "   \n\t ")
	assert.NotNil(t, appErr)
	assert.Equal(t, 400, appErr.Code)

	var count int64
	database.DB.Model(&models.Conversation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestStartConversation_NoAdminConfigured(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "u1", Name: "Pat", Email: "pat@example.com"})

	messenger, _, _ := newTestMessenger()
	_, _, appErr := messenger.StartConversation("u1", models.RoleUser, "", "Anyone there?")
	assert.NotNil(t, appErr)
	assert.Equal(t, 500, appErr.Code)
	assert.Equal(t, "Support is not available right now", appErr.Message)
}

func TestPostMessage_NonParticipantForbidden(t *testing.T) {
	setupTestDB(t)
	conversation, err := CreateConversation("Subject", "direct", "u1", models.RoleUser, []models.ConversationParticipant{
		{ParticipantID: "u1", ParticipantRole: models.RoleUser},
	})
	assert.NoError(t, err)

	messenger, _, _ := newTestMessenger()
	_, _, appErr := messenger.PostMessage(conversation.ID, "intruder", models.RoleUser, "let me in")
	assert.NotNil(t, appErr)
	assert.Equal(t, 403, appErr.Code)
}

func TestPostMessage_SameRoleParticipantsNotEmailed(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "u1", Name: "Sender", Email: "sender@example.com"})
	database.DB.Create(&models.User{ID: "u2", Name: "Neighbor", Email: "neighbor@example.com"})
	database.DB.Create(&models.User{ID: "adm1", Name: "Support", Email: "support@example.com", IsAdmin: true})

	conversation, err := CreateConversation("Shared pickup", "group", "u1", models.RoleUser, []models.ConversationParticipant{
		{ParticipantID: "u1", ParticipantRole: models.RoleUser},
		{ParticipantID: "u2", ParticipantRole: models.RoleUser},
		{ParticipantID: "adm1", ParticipantRole: models.RoleAdmin},
	})
	assert.NoError(t, err)

	messenger, _, email := newTestMessenger()
	_, senderName, appErr := messenger.PostMessage(conversation.ID, "u1", models.RoleUser, "Bins are out")
	assert.Nil(t, appErr)
	assert.Equal(t, "Sender", senderName)

	assert.Eventually(t, func() bool {
		return email.callCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"support@example.com"}, email.sentTo())
}

func TestPostMessage_BroadcastReachesAllParticipantSessions(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.Driver{ID: "drv1", Name: "Test Driver", Email: "driver@example.com"})
	database.DB.Create(&models.User{ID: "adm1", Name: "Support", Email: "support@example.com", IsAdmin: true})

	conversation, err := CreateConversation("Route help", "direct", "drv1", models.RoleDriver, []models.ConversationParticipant{
		{ParticipantID: "drv1", ParticipantRole: models.RoleDriver},
		{ParticipantID: "adm1", ParticipantRole: models.RoleAdmin},
	})
	assert.NoError(t, err)

	messenger, registry, _ := newTestMessenger()
	driverSession := &fakeSession{}
	adminSession := &fakeSession{}
	registry.Register(realtime.Key{Role: models.RoleDriver, ID: "drv1"}, driverSession)
	registry.Register(realtime.Key{Role: models.RoleAdmin, ID: "adm1"}, adminSession)

	message, _, appErr := messenger.PostMessage(conversation.ID, "drv1", models.RoleDriver, "Running late today")
	assert.Nil(t, appErr)

	for _, session := range []*fakeSession{driverSession, adminSession} {
		ev, ok := session.eventNamed(t, "message:new")
		assert.True(t, ok)
		data := ev.Data.(map[string]interface{})
		assert.Equal(t, message.ID, data["id"])
		assert.Equal(t, conversation.ID, data["conversationId"])
		assert.Equal(t, "Test Driver", data["senderName"])
		assert.Equal(t, "driver", data["senderRole"])
	}
}

func TestPostMessage_MarksConversationReadForSender(t *testing.T) {
	setupTestDB(t)
	database.DB.Create(&models.User{ID: "u1", Name: "Pat", Email: "pat@example.com"})
	database.DB.Create(&models.User{ID: "adm1", Name: "Support", Email: "support@example.com", IsAdmin: true})

	messenger, _, _ := newTestMessenger()
	_, _, appErr := messenger.StartConversation("u1", models.RoleUser, "", "First message")
	assert.Nil(t, appErr)

	assert.Equal(t, int64(0), UnreadConversationCount("u1", models.RoleUser))
	assert.Equal(t, int64(1), UnreadConversationCount("adm1", models.RoleAdmin))
}
