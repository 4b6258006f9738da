package services

import (
	"fmt"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/realtime"
)

// ResolveRoles returns the union of identities a user account holds, in
// priority order (admin > driver > user). The first entry is the primary role
// reported back to connecting clients. A plain account with no grants still
// gets the user role.
func ResolveRoles(userID string) []models.ParticipantRole {
	var roles []models.ParticipantRole

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err == nil {
		if user.IsAdmin {
			roles = append(roles, models.RoleAdmin)
		}
	}

	var driverCount int64
	database.DB.Model(&models.Driver{}).Where("user_id = ?", userID).Count(&driverCount)
	if driverCount > 0 {
		roles = append(roles, models.RoleDriver)
	}

	if user.IsCustomer || len(roles) == 0 {
		roles = append(roles, models.RoleUser)
	}

	return roles
}

// ResolveDriverProfile finds the driver profile linked to a user account.
func ResolveDriverProfile(userID string) (*models.Driver, error) {
	var driver models.Driver
	if err := database.DB.First(&driver, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

// ResolveParticipantKeys expands an acting identity into every routing key
// the underlying person holds. Driver identities are keyed by the driver
// profile ID, user and admin identities by the account ID; a linked account
// on either side contributes its keys too, so one socket serves all of a
// person's roles.
func ResolveParticipantKeys(id string, role models.ParticipantRole) []realtime.Key {
	keys := []realtime.Key{{Role: role, ID: id}}

	if role == models.RoleDriver {
		var driver models.Driver
		if err := database.DB.First(&driver, "id = ?", id).Error; err == nil && driver.UserID != nil {
			for _, r := range ResolveRoles(*driver.UserID) {
				if r == models.RoleDriver {
					continue
				}
				keys = append(keys, realtime.Key{Role: r, ID: *driver.UserID})
			}
		}
		return keys
	}

	for _, r := range ResolveRoles(id) {
		if r == role {
			continue
		}
		if r == models.RoleDriver {
			if driver, err := ResolveDriverProfile(id); err == nil {
				keys = append(keys, realtime.Key{Role: models.RoleDriver, ID: driver.ID})
			}
			continue
		}
		keys = append(keys, realtime.Key{Role: r, ID: id})
	}
	return keys
}

// ResolveSenderName resolves a display name for an identity. User and admin
// identities resolve from the users table, drivers from the driver profile.
// A missing record falls back to a role-specific label so old messages stay
// renderable after account deletion.
func ResolveSenderName(id string, role models.ParticipantRole) string {
	switch role {
	case models.RoleDriver:
		var driver models.Driver
		if err := database.DB.First(&driver, "id = ?", id).Error; err == nil && driver.Name != "" {
			return driver.Name
		}
	default:
		var user models.User
		if err := database.DB.First(&user, "id = ?", id).Error; err == nil && user.Name != "" {
			return user.Name
		}
	}
	return role.FallbackName()
}

// ResolveContact looks up the recipient's display name and contact address
// for the requested channel. A missing address is an error the dispatcher
// records as a failed log entry, never a panic or a thrown request error.
func ResolveContact(id string, role models.ParticipantRole, channel models.CommChannel) (name, address string, err error) {
	var email, phone string

	switch role {
	case models.RoleDriver:
		var driver models.Driver
		if dbErr := database.DB.First(&driver, "id = ?", id).Error; dbErr != nil {
			return role.FallbackName(), "", fmt.Errorf("driver %s not found", id)
		}
		name, email, phone = driver.Name, driver.Email, driver.Phone
	default:
		var user models.User
		if dbErr := database.DB.First(&user, "id = ?", id).Error; dbErr != nil {
			return role.FallbackName(), "", fmt.Errorf("%s %s not found", role, id)
		}
		name, email, phone = user.Name, user.Email, user.Phone
	}
	if name == "" {
		name = role.FallbackName()
	}

	switch channel {
	case models.ChannelEmail:
		if email == "" {
			return name, "", fmt.Errorf("no email address on file for %s %s", role, id)
		}
		return name, email, nil
	case models.ChannelSMS:
		if phone == "" {
			return name, "", fmt.Errorf("no phone number on file for %s %s", role, id)
		}
		return name, phone, nil
	default:
		return name, "", fmt.Errorf("unknown channel %q", channel)
	}
}

// ResolveSupportAdmin finds the admin account that receives new support
// conversations. There is no conversation without a destination, so callers
// treat an error here as fatal for the request.
func ResolveSupportAdmin() (*models.User, error) {
	var admin models.User
	if err := database.DB.Where("is_admin = ?", true).Order("created_at asc").First(&admin).Error; err != nil {
		return nil, fmt.Errorf("no admin account configured: %w", err)
	}
	return &admin, nil
}
