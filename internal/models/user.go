package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user account can hold.
const (
	RoleCustomer  = "customer"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Account lockout policy applied after repeated failed logins.
const (
	MaxFailedLoginAttempts = 5
	LockoutDuration        = 30 * time.Minute
)

// Address is a shipping/billing address in a user's address book.
type Address struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string `json:"user_id" gorm:"index;type:varchar(36)"`
	Label     string `json:"label" validate:"omitempty,max=50"`
	Street    string `json:"street" validate:"required,max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"omitempty,max=100"`
	ZipCode   string `json:"zip_code" validate:"required,max=20"`
	Country   string `json:"country" validate:"required,max=100"`
	IsDefault bool   `json:"is_default"`
}

// User represents a customer or staff account.
type User struct {
	ID                  string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	FirstName           string     `json:"first_name" validate:"required,min=1,max=100"`
	LastName            string     `json:"last_name" validate:"required,min=1,max=100"`
	Email               string     `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password            string     `json:"-" gorm:"type:varchar(255)" validate:"required,min=8"`
	Role                string     `json:"role" gorm:"type:varchar(20);default:customer" validate:"omitempty,oneof=customer admin moderator"`
	NewsletterOptIn     bool       `json:"newsletter_opt_in"`
	Currency            string     `json:"currency" gorm:"type:varchar(3);default:USD"`
	FailedLoginAttempts int        `json:"-"`
	LockoutUntil        *time.Time `json:"-"`
	Addresses           []Address  `json:"addresses,omitempty"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// IsLockedOut reports whether the account is inside its lockout window.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}

// DefaultAddress returns the address flagged as default, if any.
func (u *User) DefaultAddress() *Address {
	for i := range u.Addresses {
		if u.Addresses[i].IsDefault {
			return &u.Addresses[i]
		}
	}
	return nil
}
