package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ParticipantRole identifies which of a person's identities is acting.
// The same underlying person can hold several roles at once (e.g. a driver
// who also has a customer account).
type ParticipantRole string

const (
	RoleUser   ParticipantRole = "user"
	RoleDriver ParticipantRole = "driver"
	RoleAdmin  ParticipantRole = "admin"
)

// IsValid reports whether the role is one of the three known identities.
func (r ParticipantRole) IsValid() bool {
	return r == RoleUser || r == RoleDriver || r == RoleAdmin
}

// FallbackName is the display label used when the sender record is missing.
func (r ParticipantRole) FallbackName() string {
	switch r {
	case RoleDriver:
		return "Driver"
	case RoleAdmin:
		return "Support Team"
	default:
		return "Customer"
	}
}

// User holds customer and admin accounts. Capability flags, not an exclusive
// role column: an admin can also be a customer, and a driver profile may link
// back to a user account via Driver.UserID.
type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name     string `json:"name"`
	Email    string `gorm:"uniqueIndex" json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"-"`

	IsAdmin    bool `gorm:"default:false" json:"isAdmin"`
	IsCustomer bool `gorm:"default:true" json:"isCustomer"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Driver is the driver-profile identity. Drivers message through the team
// portal; display names and contact addresses for the driver role resolve
// from this table, never from users.
type Driver struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Optional link to a customer account held by the same person.
	UserID *string `gorm:"index" json:"userId,omitempty"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (d *Driver) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return
}
