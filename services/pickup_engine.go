package services

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/scrapmate/scrapmate-api/models"
)

// PickupEngine is the state machine over a pickup's status:
//
//	pending -> accepted -> in-process -> pending-approval -> completed
//
// Every operation takes the acting user, verifies it is the party the
// transition belongs to, and mutates the record through the store's single
// update path. A transition attempt that loses a race observes the winner's
// status and fails with ErrInvalidTransition instead of merging.
type PickupEngine struct {
	store *PickupStore
}

// NewPickupEngine creates an engine writing through store.
func NewPickupEngine(store *PickupStore) *PickupEngine {
	return &PickupEngine{store: store}
}

// CreatePickupInput carries the customer-supplied scheduling details.
type CreatePickupInput struct {
	Address    string
	MapLink    *string
	PickupDate string
	TimeSlot   string
}

// SubmitItemInput is one collected line the partner reports.
type SubmitItemInput struct {
	Name     string
	Quantity int
	Price    float64
}

// Create schedules a new pickup for the acting customer. Date, time slot and
// address are required; customer identity fields are taken from the actor,
// not from the payload.
func (e *PickupEngine) Create(actor *models.User, input CreatePickupInput) (*models.PickupRequest, error) {
	if !actor.IsCustomer() {
		return nil, fmt.Errorf("%w: only customers schedule pickups", ErrUnauthorized)
	}
	if strings.TrimSpace(input.PickupDate) == "" ||
		strings.TrimSpace(input.TimeSlot) == "" ||
		strings.TrimSpace(input.Address) == "" {
		return nil, fmt.Errorf("%w: pickup date, time slot and address are required", ErrInvalidInput)
	}

	pickup := &models.PickupRequest{
		CustomerID:    actor.ID,
		CustomerName:  actor.Name,
		CustomerPhone: actor.Phone,
		Address:       input.Address,
		MapLink:       input.MapLink,
		PickupDate:    input.PickupDate,
		TimeSlot:      input.TimeSlot,
	}
	if err := e.store.Insert(pickup); err != nil {
		return nil, err
	}
	return pickup, nil
}

// Accept claims a pending pickup for the acting partner and issues the
// 6-digit pickup code. When two partners race, the store serializes the
// attempts: the first writer to observe pending wins, the second observes
// accepted and fails with ErrInvalidTransition.
func (e *PickupEngine) Accept(actor *models.User, pickupID uint) (*models.PickupRequest, error) {
	if !actor.IsPartner() {
		return nil, fmt.Errorf("%w: only partners accept pickups", ErrUnauthorized)
	}

	return e.store.Update(pickupID, func(p *models.PickupRequest) error {
		if p.Status != models.StatusPending {
			return fmt.Errorf("%w: pickup is %s, accept requires %s", ErrInvalidTransition, p.Status, models.StatusPending)
		}

		code, err := generatePickupCode()
		if err != nil {
			return fmt.Errorf("generate pickup code: %w", err)
		}

		partnerID := actor.ID
		partnerName := actor.Name
		p.Status = models.StatusAccepted
		p.PickupCode = &code
		p.PartnerID = &partnerID
		p.PartnerName = &partnerName
		return nil
	})
}

// Start moves an accepted pickup to in-process once the assigned partner
// presents the exact pickup code. A wrong status and a wrong code are
// distinguishable failures so the caller can show different guidance. The
// partner check runs before the code check: a stranger holding a leaked
// code gets ErrUnauthorized, not ErrCodeMismatch.
func (e *PickupEngine) Start(actor *models.User, pickupID uint, enteredCode string) (*models.PickupRequest, error) {
	if !actor.IsPartner() {
		return nil, fmt.Errorf("%w: only partners start pickups", ErrUnauthorized)
	}

	return e.store.Update(pickupID, func(p *models.PickupRequest) error {
		if p.Status != models.StatusAccepted {
			return fmt.Errorf("%w: pickup is %s, start requires %s", ErrInvalidTransition, p.Status, models.StatusAccepted)
		}
		if p.PartnerID == nil || *p.PartnerID != actor.ID {
			return fmt.Errorf("%w: pickup is assigned to another partner", ErrUnauthorized)
		}
		if p.PickupCode == nil || *p.PickupCode != enteredCode {
			return ErrCodeMismatch
		}

		p.Status = models.StatusInProcess
		return nil
	})
}

// SubmitItems records what was collected and moves the pickup to
// pending-approval. Items must be non-empty with positive quantities and
// non-negative unit prices, and totalAmount must equal the sum of the line
// subtotals to the cent - a caller-supplied total that disagrees with its
// own items is rejected rather than stored. Items are fixed once submitted;
// submitting again while the customer is reviewing fails with
// ErrInvalidTransition.
func (e *PickupEngine) SubmitItems(actor *models.User, pickupID uint, items []SubmitItemInput, totalAmount float64) (*models.PickupRequest, error) {
	if !actor.IsPartner() {
		return nil, fmt.Errorf("%w: only partners submit items", ErrUnauthorized)
	}

	return e.store.Update(pickupID, func(p *models.PickupRequest) error {
		if p.Status != models.StatusInProcess {
			return fmt.Errorf("%w: pickup is %s, submitting items requires %s", ErrInvalidTransition, p.Status, models.StatusInProcess)
		}
		if p.PartnerID == nil || *p.PartnerID != actor.ID {
			return fmt.Errorf("%w: pickup is assigned to another partner", ErrUnauthorized)
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
		}

		var sum float64
		lines := make([]models.PickupItem, 0, len(items))
		for _, item := range items {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("%w: item name is required", ErrInvalidInput)
			}
			if item.Quantity <= 0 {
				return fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
			}
			if item.Price < 0 {
				return fmt.Errorf("%w: item price must not be negative", ErrInvalidInput)
			}
			sum += float64(item.Quantity) * item.Price
			lines = append(lines, models.PickupItem{
				PickupID: p.ID,
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
			})
		}

		// Compare in cents to avoid float rounding noise.
		if math.Round(sum*100) != math.Round(totalAmount*100) {
			return fmt.Errorf("%w: total amount %.2f does not match items sum %.2f", ErrInvalidInput, totalAmount, sum)
		}

		p.Items = lines
		p.TotalAmount = &totalAmount
		p.Status = models.StatusPendingApproval
		return nil
	})
}

// Approve completes a pending-approval pickup. Only the customer who
// created the pickup may approve it, and approving an already-completed
// pickup fails with ErrInvalidTransition rather than re-completing silently.
func (e *PickupEngine) Approve(actor *models.User, pickupID uint) (*models.PickupRequest, error) {
	if !actor.IsCustomer() {
		return nil, fmt.Errorf("%w: only customers approve pickups", ErrUnauthorized)
	}

	return e.store.Update(pickupID, func(p *models.PickupRequest) error {
		if p.Status != models.StatusPendingApproval {
			return fmt.Errorf("%w: pickup is %s, approve requires %s", ErrInvalidTransition, p.Status, models.StatusPendingApproval)
		}
		if p.CustomerID != actor.ID {
			return fmt.Errorf("%w: pickup belongs to another customer", ErrUnauthorized)
		}

		p.Status = models.StatusCompleted
		return nil
	})
}

// AttachWeighSlip stores the storage key of the weigh-slip photo on the
// pickup. Only the assigned partner may attach one, and only while the
// pickup is in-process or pending-approval. Returns the updated pickup and
// the key it replaced, if any, so the caller can clean up the old object.
func (e *PickupEngine) AttachWeighSlip(actor *models.User, pickupID uint, storageKey string) (*models.PickupRequest, *string, error) {
	if !actor.IsPartner() {
		return nil, nil, fmt.Errorf("%w: only partners attach weigh slips", ErrUnauthorized)
	}
	if storageKey == "" {
		return nil, nil, fmt.Errorf("%w: storage key is required", ErrInvalidInput)
	}

	var replaced *string
	updated, err := e.store.Update(pickupID, func(p *models.PickupRequest) error {
		if p.Status != models.StatusInProcess && p.Status != models.StatusPendingApproval {
			return fmt.Errorf("%w: pickup is %s, weigh slip requires %s or %s", ErrInvalidTransition, p.Status, models.StatusInProcess, models.StatusPendingApproval)
		}
		if p.PartnerID == nil || *p.PartnerID != actor.ID {
			return fmt.Errorf("%w: pickup is assigned to another partner", ErrUnauthorized)
		}

		replaced = p.WeighSlipS3Key
		key := storageKey
		p.WeighSlipS3Key = &key
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, replaced, nil
}

// generatePickupCode draws a uniform 6-digit code in 100000..999999. Codes
// are scoped per-record; collisions across pickups are acceptable.
func generatePickupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
