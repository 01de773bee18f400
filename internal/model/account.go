package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account roles.
const (
	RoleManager = "manager"
	RoleUser    = "user"
)

// Account is a manager or user credential record.
//
// OTPCode and OTPExpiry are either both nil or both set. OTPVerified is
// only set while a code is pending and has been confirmed.
type Account struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"_id"`               // uuid
	Email        string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"` // lower-cased, unique
	Name         string     `gorm:"type:varchar(191);not null" json:"name"`              // display name
	PasswordHash string     `gorm:"column:password;not null" json:"-"`                   // bcrypt hash
	Role         string     `gorm:"type:varchar(16);index;not null" json:"role"`         // manager / user
	OTPCode      *string    `gorm:"type:varchar(16)" json:"-"`                           // pending reset code
	OTPExpiry    *time.Time `json:"-"`                                                   // reset code expiry
	OTPVerified  *time.Time `gorm:"column:otp_verified_at" json:"-"`                     // pending code confirmed
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns an id to new accounts.
func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// HasPendingOTP reports whether a reset code is stored.
func (a *Account) HasPendingOTP() bool {
	return a.OTPCode != nil && a.OTPExpiry != nil
}

// HasVerifiedOTP reports whether the pending reset code was confirmed.
func (a *Account) HasVerifiedOTP() bool {
	return a.HasPendingOTP() && a.OTPVerified != nil
}

// NormalizeEmail trims and lower-cases an email for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is a known account role.
func ValidRole(role string) bool {
	return role == RoleManager || role == RoleUser
}
