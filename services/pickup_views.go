package services

import "github.com/scrapmate/scrapmate-api/models"

// DefaultRecentLimit is how many recent pickups the customer dashboard
// shows when no explicit limit is given.
const DefaultRecentLimit = 3

// DashboardCounters are the partner dashboard numbers: pickups waiting for
// any partner, pickups this partner is working, and pickups this partner
// has completed.
type DashboardCounters struct {
	PendingTotal int `json:"pending_total"`
	InProgress   int `json:"in_progress"`
	Completed    int `json:"completed"`
}

// PickupViews computes role-specific projections of the pickup store. The
// views hold no state of their own - every call re-reads the store, so they
// cannot drift from it.
type PickupViews struct {
	store *PickupStore
}

// NewPickupViews creates views over store.
func NewPickupViews(store *PickupStore) *PickupViews {
	return &PickupViews{store: store}
}

// ForCustomer returns the customer's own pickups in insertion order.
func (v *PickupViews) ForCustomer(customerID uint) ([]models.PickupRequest, error) {
	all, err := v.store.ListAll()
	if err != nil {
		return nil, err
	}

	pickups := make([]models.PickupRequest, 0)
	for _, p := range all {
		if p.CustomerID == customerID {
			pickups = append(pickups, p)
		}
	}
	return pickups, nil
}

// RecentForCustomer returns the customer's last limit pickups by insertion
// order, newest first. A non-positive limit falls back to
// DefaultRecentLimit.
func (v *PickupViews) RecentForCustomer(customerID uint, limit int) ([]models.PickupRequest, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	own, err := v.ForCustomer(customerID)
	if err != nil {
		return nil, err
	}

	if len(own) > limit {
		own = own[len(own)-limit:]
	}

	// newest first
	recent := make([]models.PickupRequest, 0, len(own))
	for i := len(own) - 1; i >= 0; i-- {
		recent = append(recent, own[i])
	}
	return recent, nil
}

// ForPartner returns the pickups a partner can act on: everything still
// pending plus everything assigned to this partner, in insertion order.
func (v *PickupViews) ForPartner(partnerID uint) ([]models.PickupRequest, error) {
	all, err := v.store.ListAll()
	if err != nil {
		return nil, err
	}

	pickups := make([]models.PickupRequest, 0)
	for _, p := range all {
		if p.Status == models.StatusPending || (p.PartnerID != nil && *p.PartnerID == partnerID) {
			pickups = append(pickups, p)
		}
	}
	return pickups, nil
}

// Counters computes the partner dashboard counters.
func (v *PickupViews) Counters(partnerID uint) (*DashboardCounters, error) {
	all, err := v.store.ListAll()
	if err != nil {
		return nil, err
	}

	counters := &DashboardCounters{}
	for _, p := range all {
		if p.Status == models.StatusPending {
			counters.PendingTotal++
		}
		if p.PartnerID == nil || *p.PartnerID != partnerID {
			continue
		}
		switch p.Status {
		case models.StatusAccepted, models.StatusInProcess, models.StatusPendingApproval:
			counters.InProgress++
		case models.StatusCompleted:
			counters.Completed++
		}
	}
	return counters, nil
}
