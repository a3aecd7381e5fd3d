package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvanceTo(t *testing.T) {
	tests := []struct {
		name    string
		from    PickupStatus
		to      PickupStatus
		allowed bool
	}{
		{"pending to accepted", StatusPending, StatusAccepted, true},
		{"accepted to in-process", StatusAccepted, StatusInProcess, true},
		{"in-process to pending-approval", StatusInProcess, StatusPendingApproval, true},
		{"pending-approval to completed", StatusPendingApproval, StatusCompleted, true},
		{"pending to in-process skips a step", StatusPending, StatusInProcess, false},
		{"pending to completed skips steps", StatusPending, StatusCompleted, false},
		{"accepted back to pending", StatusAccepted, StatusPending, false},
		{"completed to anything", StatusCompleted, StatusPending, false},
		{"completed is terminal", StatusCompleted, StatusCompleted, false},
		{"no self transition", StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []PickupStatus{StatusPending, StatusAccepted, StatusInProcess, StatusPendingApproval, StatusCompleted} {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, PickupStatus("cancelled").IsValid())
	assert.False(t, PickupStatus("").IsValid())
}

func TestPickupItemSubtotal(t *testing.T) {
	item := PickupItem{Name: "Copper Wire", Quantity: 3, Price: 2.5}
	assert.Equal(t, 7.5, item.Subtotal())

	free := PickupItem{Name: "Cardboard", Quantity: 10, Price: 0}
	assert.Equal(t, 0.0, free.Subtotal())
}

func TestUserRoleHelpers(t *testing.T) {
	customer := User{Role: RoleCustomer}
	partner := User{Role: RolePartner}

	assert.True(t, customer.IsCustomer())
	assert.False(t, customer.IsPartner())
	assert.True(t, partner.IsPartner())
	assert.False(t, partner.IsCustomer())
}
