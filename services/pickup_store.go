package services

import (
	"errors"
	"fmt"

	"github.com/scrapmate/scrapmate-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PickupStore owns the canonical pickup records. Every lifecycle mutation
// goes through Update, which runs the whole read-modify-write inside one
// transaction; on Postgres the row is locked for the duration, and SQLite
// serializes writers on its own. Two concurrent transitions on the same id
// therefore serialize, and the second one evaluates against the first one's
// result.
type PickupStore struct {
	db *gorm.DB
}

// NewPickupStore creates a store backed by db.
func NewPickupStore(db *gorm.DB) *PickupStore {
	return &PickupStore{db: db}
}

// Insert persists a new pickup with status pending and returns gorm-assigned
// id and timestamps on the passed record.
func (s *PickupStore) Insert(pickup *models.PickupRequest) error {
	pickup.Status = models.StatusPending
	if err := s.db.Create(pickup).Error; err != nil {
		return fmt.Errorf("insert pickup: %w", err)
	}
	return nil
}

// Get fetches a pickup by id with its items. Fails with ErrNotFound.
func (s *PickupStore) Get(id uint) (*models.PickupRequest, error) {
	var pickup models.PickupRequest
	err := s.db.Preload("Items").First(&pickup, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pickup: %w", err)
	}
	return &pickup, nil
}

// ListAll returns every pickup in insertion order, so read views derived
// from the list are deterministic.
func (s *PickupStore) ListAll() ([]models.PickupRequest, error) {
	var pickups []models.PickupRequest
	if err := s.db.Preload("Items").Order("id asc").Find(&pickups).Error; err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}
	return pickups, nil
}

// Update applies mutate to the current record and persists the result with a
// refreshed updated_at. The load, the mutation and the save share one
// transaction; if mutate returns an error nothing is written and the error
// is returned as-is, so engine errors pass through unchanged.
func (s *PickupStore) Update(id uint, mutate func(*models.PickupRequest) error) (*models.PickupRequest, error) {
	var updated models.PickupRequest

	err := s.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Preload("Items")
		if tx.Dialector.Name() == "postgres" {
			// Row lock so a racing transition waits and then sees this
			// writer's status. SQLite rejects FOR UPDATE and doesn't need
			// it - the database allows a single writer at a time.
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var pickup models.PickupRequest
		if err := query.First(&pickup, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load pickup for update: %w", err)
		}

		if err := mutate(&pickup); err != nil {
			return err
		}

		if err := tx.Save(&pickup).Error; err != nil {
			return fmt.Errorf("save pickup: %w", err)
		}

		updated = pickup
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}
