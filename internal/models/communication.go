package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CommChannel string

const (
	ChannelEmail CommChannel = "email"
	ChannelSMS   CommChannel = "sms"
)

func (c CommChannel) IsValid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

type CommStatus string

const (
	CommStatusSent      CommStatus = "sent"
	CommStatusFailed    CommStatus = "failed"
	CommStatusScheduled CommStatus = "scheduled"
	CommStatusCancelled CommStatus = "cancelled"
)

// CommunicationTemplate stores a reusable subject/body with {{variable}}
// placeholders. Updated by full replace, no versioning.
type CommunicationTemplate struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name      string         `gorm:"not null" json:"name"`
	Channel   CommChannel    `gorm:"type:text;not null" json:"channel"`
	Subject   string         `json:"subject"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	Variables datatypes.JSON `json:"variables"`

	CreatedByID string `gorm:"type:text" json:"createdById"`
}

func (t *CommunicationTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return
}

// CommunicationLog is the durable record of every dispatch attempt, immediate
// or scheduled. Exactly one row per attempt; scheduled rows transition to
// sent/failed/cancelled exactly once via a conditional update, never twice.
type CommunicationLog struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	RecipientID    string          `gorm:"index;type:text;not null" json:"recipientId"`
	RecipientRole  ParticipantRole `gorm:"type:text;not null" json:"recipientRole"`
	RecipientName  string          `json:"recipientName"`
	ContactAddress string          `json:"contactAddress"`

	Channel   CommChannel `gorm:"type:text;not null" json:"channel"`
	Direction string      `gorm:"type:text;default:'outbound';not null" json:"direction"`

	// Content actually attempted, post-render.
	Subject string `json:"subject"`
	Body    string `gorm:"type:text" json:"body"`

	Status       CommStatus `gorm:"index;type:text;not null" json:"status"`
	ScheduledFor *time.Time `gorm:"index" json:"scheduledFor"`
	SentAt       *time.Time `json:"sentAt"`
	ErrorMessage string     `json:"errorMessage,omitempty"`

	SentByID string `gorm:"type:text" json:"sentById"`
}

func (l *CommunicationLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return
}
