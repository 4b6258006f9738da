package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/config"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/realtime"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/services"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

func SetupTestDB(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	config.AppConfig = &config.Config{JWTSecret: "test-secret"}

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.DB = db
	database.Redis = nil

	err = db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.CommunicationTemplate{},
		&models.CommunicationLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	for _, table := range []string{
		"messages", "conversation_participants", "conversations",
		"communication_logs", "communication_templates", "drivers", "users",
	} {
		db.Exec("DELETE FROM " + table)
	}
}

// recordingEmailSender stands in for SMTP in handler tests.
type recordingEmailSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *recordingEmailSender) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp connection refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

type recordingSMSSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *recordingSMSSender) Send(to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("twilio rejected message")
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestConversationHandler() *ConversationHandler {
	registry := realtime.NewRegistry()
	notifier := services.NewNotifier(&recordingEmailSender{}, &recordingSMSSender{})
	return NewConversationHandler(services.NewMessenger(realtime.NewBroadcaster(registry), notifier))
}

// testContext builds a gin context carrying the authenticated identity the
// middleware would normally set.
func testContext(t *testing.T, method, path string, body interface{}, userID, userType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	if userID != "" {
		c.Set("userId", userID)
		c.Set("userType", userType)
	}
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	return out
}
