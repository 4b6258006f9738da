package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationStatus string

const (
	ConversationOpen     ConversationStatus = "open"
	ConversationClosed   ConversationStatus = "closed"
	ConversationArchived ConversationStatus = "archived"
)

// IsValid reports whether the status is a known lifecycle state.
func (s ConversationStatus) IsValid() bool {
	return s == ConversationOpen || s == ConversationClosed || s == ConversationArchived
}

// Conversation is a thread of messages between a fixed participant set.
// Reopening a closed conversation is permitted; archived conversations are
// excluded from default listings but not physically immutable.
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Subject string             `json:"subject"`
	Type    string             `gorm:"type:text;default:'direct';not null" json:"type"`
	Status  ConversationStatus `gorm:"type:text;default:'open';not null" json:"status"`

	CreatedByID   string          `gorm:"index;type:text;not null" json:"createdById"`
	CreatedByRole ParticipantRole `gorm:"type:text;not null" json:"createdByRole"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// ConversationParticipant joins an identity (id scoped by role) to a
// conversation. A person appearing as both driver and user gets two rows.
// LastReadAt nil means never read (treated as epoch).
type ConversationParticipant struct {
	ID              string          `gorm:"primaryKey;type:text" json:"id"`
	ConversationID  string          `gorm:"uniqueIndex:idx_conversation_identity;type:text;not null" json:"conversationId"`
	ParticipantID   string          `gorm:"uniqueIndex:idx_conversation_identity;type:text;not null" json:"participantId"`
	ParticipantRole ParticipantRole `gorm:"uniqueIndex:idx_conversation_identity;type:text;not null" json:"participantRole"`

	// Role within the conversation, not the identity role.
	Role       string     `gorm:"type:text;default:'member';not null" json:"role"`
	LastReadAt *time.Time `json:"lastReadAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (p *ConversationParticipant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// Message is immutable once created. Inserting one bumps the parent
// conversation's updated_at so recent-activity ordering stays correct.
type Message struct {
	ID             string          `gorm:"primaryKey;type:text" json:"id"`
	ConversationID string          `gorm:"index;type:text;not null" json:"conversationId"`
	SenderID       string          `gorm:"index;type:text;not null" json:"senderId"`
	SenderRole     ParticipantRole `gorm:"type:text;not null" json:"senderRole"`
	Body           string          `gorm:"type:text;not null" json:"body"`
	MessageType    string          `gorm:"type:text;default:'text';not null" json:"messageType"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
