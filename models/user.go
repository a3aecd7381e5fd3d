package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role is fixed at authentication and never changes for the
// lifetime of that identity.
const (
	RoleCustomer = "customer"
	RolePartner  = "partner"
)

// User represents an authenticated identity (customer or partner)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Phone     string         `gorm:"not null;index" json:"phone"`
	Name      string         `gorm:"not null" json:"name"`
	Role      string         `gorm:"not null;default:'customer'" json:"role"` // "customer" or "partner"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsCustomer reports whether the user holds the customer role.
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsPartner reports whether the user holds the partner role.
func (u *User) IsPartner() bool {
	return u.Role == RolePartner
}

// Session is the persisted login for a user. The bearer token is an opaque
// uuid; one row exists per active session.
type Session struct {
	Token     string    `gorm:"primaryKey" json:"token"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}
