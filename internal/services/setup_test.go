package services

import (
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	logger.Init("test")

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

	// shared in-memory db survives between tests in the package
	for _, table := range []string{
		"messages", "conversation_participants", "conversations",
		"communication_logs", "communication_templates", "drivers", "users",
	} {
		db.Exec("DELETE FROM " + table)
	}
}

// mockEmailSender records outbound mail and can be forced to fail.
type mockEmailSender struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (m *mockEmailSender) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return fmt.Errorf("smtp connection refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

func (m *mockEmailSender) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *mockEmailSender) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockSMSSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (m *mockSMSSender) Send(to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("twilio rejected message")
	}
	m.sent = append(m.sent, to)
	return nil
}
