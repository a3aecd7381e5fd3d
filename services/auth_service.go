package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scrapmate/scrapmate-api/models"
	"gorm.io/gorm"
)

// AuthService is the identity provider. Authentication checks the submitted
// code against a configured verification value; no code is actually
// delivered anywhere. Each successful login mints a fresh identity and a
// persisted session, so a returning phone number gets a new user id.
type AuthService struct {
	db               *gorm.DB
	verificationCode string
}

// NewAuthService creates an auth service backed by db, accepting
// verificationCode as the only valid login code.
func NewAuthService(db *gorm.DB, verificationCode string) *AuthService {
	return &AuthService{
		db:               db,
		verificationCode: verificationCode,
	}
}

// Authenticate verifies the code and, on success, creates a user with the
// given phone, name and role plus a session holding an opaque bearer token.
// An empty name falls back to a role-based display name. Fails with
// ErrInvalidCode when the code is wrong and ErrInvalidInput when the phone
// is missing or the role is unknown.
func (s *AuthService) Authenticate(phone, name, role, code string) (*models.Session, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}
	if role != models.RoleCustomer && role != models.RolePartner {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalidInput, models.RoleCustomer, models.RolePartner)
	}
	if code != s.verificationCode {
		return nil, ErrInvalidCode
	}

	if name == "" {
		if role == models.RoleCustomer {
			name = "Customer User"
		} else {
			name = "Partner User"
		}
	}

	user := models.User{
		Phone: phone,
		Name:  name,
		Role:  role,
	}
	session := models.Session{
		Token: uuid.NewString(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		session.UserID = user.ID
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session.User = user
	return &session, nil
}

// Current resolves a bearer token to its user. Returns (nil, nil) when the
// token is empty or no session exists for it.
func (s *AuthService) Current(token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	var session models.Session
	err := s.db.Preload("User").Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}

	return &session.User, nil
}

// EndSession removes the session for the given token. Ending a session that
// does not exist is not an error.
func (s *AuthService) EndSession(token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
