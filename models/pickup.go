package models

import (
	"time"

	"gorm.io/gorm"
)

// PickupStatus is the closed set of lifecycle states for a pickup request.
// Status only ever advances forward; there is no cancellation path.
type PickupStatus string

const (
	StatusPending         PickupStatus = "pending"
	StatusAccepted        PickupStatus = "accepted"
	StatusInProcess       PickupStatus = "in-process"
	StatusPendingApproval PickupStatus = "pending-approval"
	StatusCompleted       PickupStatus = "completed"
)

// nextStatus is the full transition table. Each state has at most one
// successor; completed is terminal.
var nextStatus = map[PickupStatus]PickupStatus{
	StatusPending:         StatusAccepted,
	StatusAccepted:        StatusInProcess,
	StatusInProcess:       StatusPendingApproval,
	StatusPendingApproval: StatusCompleted,
}

// CanAdvanceTo reports whether next is the legal successor of s.
func (s PickupStatus) CanAdvanceTo(next PickupStatus) bool {
	return nextStatus[s] == next
}

// IsValid reports whether s is one of the five known states.
func (s PickupStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProcess, StatusPendingApproval, StatusCompleted:
		return true
	}
	return false
}

// PickupRequest represents one scrap-collection request from scheduling to
// completion. Partner fields, the pickup code, items and the total amount
// are accretive: absent until the lifecycle stage that sets them, fixed
// afterwards.
type PickupRequest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CustomerID     uint           `gorm:"not null;index" json:"customer_id"`
	Customer       User           `gorm:"foreignKey:CustomerID" json:"-"`
	CustomerName   string         `gorm:"not null" json:"customer_name"`
	CustomerPhone  string         `gorm:"not null" json:"customer_phone"`
	Address        string         `gorm:"not null" json:"address"`
	MapLink        *string        `json:"map_link,omitempty"`
	PickupDate     string         `gorm:"not null" json:"pickup_date"`
	TimeSlot       string         `gorm:"not null" json:"time_slot"`
	Status         PickupStatus   `gorm:"not null;default:'pending'" json:"status"`
	PickupCode     *string        `json:"pickup_code,omitempty"`     // set at acceptance
	PartnerID      *uint          `gorm:"index" json:"partner_id,omitempty"` // set at acceptance, never reassigned
	PartnerName    *string        `json:"partner_name,omitempty"`
	Items          []PickupItem   `gorm:"foreignKey:PickupID" json:"items,omitempty"`
	TotalAmount    *float64       `json:"total_amount,omitempty"`
	WeighSlipS3Key *string        `json:"weigh_slip_s3_key,omitempty"`  // storage key for the weigh-slip photo
	WeighSlipURL   *string        `gorm:"-" json:"weigh_slip_url,omitempty"` // computed, presigned/served URL
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the PickupRequest model
func (PickupRequest) TableName() string {
	return "pickup_requests"
}

// PickupItem is one line of collected material on a pickup.
type PickupItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	PickupID uint    `gorm:"not null;index" json:"pickup_id"`
	Name     string  `gorm:"not null" json:"name"`
	Quantity int     `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price    float64 `gorm:"not null" json:"price"` // unit price, >= 0
}

// TableName specifies the table name for the PickupItem model
func (PickupItem) TableName() string {
	return "pickup_items"
}

// Subtotal returns quantity x unit price for this line.
func (i PickupItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}
