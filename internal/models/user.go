package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an administrator account. The blog has no self-service
// authoring; the only users are the admins who manage content.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	TOTPSecret   *string   `json:"-"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Needs2FASetup reports whether the user still has to enroll a TOTP
// device before they can enter the admin area.
func (u *User) Needs2FASetup() bool {
	return !u.TOTPEnabled || u.TOTPSecret == nil
}
