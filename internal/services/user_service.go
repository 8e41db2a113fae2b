package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixora/credits-backend/internal/dto"
	"github.com/pixora/credits-backend/internal/identity"
	"github.com/pixora/credits-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// SnapshotFetcher retrieves a profile snapshot from the identity provider.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, externalID string) (*identity.ProfileSnapshot, error)
}

type UserService struct {
	db           *gorm.DB
	fetcher      SnapshotFetcher
	initialGrant int64
}

func NewUserService(db *gorm.DB, fetcher SnapshotFetcher, initialGrant int64) *UserService {
	return &UserService{db: db, fetcher: fetcher, initialGrant: initialGrant}
}

// Resolve returns the local record for an external id, provisioning it
// lazily on first access. Existing records are returned without touching
// the identity provider. When two resolvers race on the same unseen id,
// the unique index on external_id lets exactly one insert win; the loser
// re-reads and converges on the winner's record.
func (s *UserService) Resolve(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, "external_id = ?", externalID).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	snap, err := s.fetcher.Fetch(ctx, externalID)
	if err != nil {
		return nil, err
	}

	user = newUserFromSnapshot(snap, s.initialGrant)
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.User
			if err := s.db.First(&winner, "external_id = ?", externalID).Error; err != nil {
				return nil, fmt.Errorf("failed to re-read user after insert race: %w", err)
			}
			return &winner, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user provisioned", "external_id", externalID, "initial_grant", s.initialGrant)
	return &user, nil
}

// GetByExternalID looks up an existing record without provisioning.
func (s *UserService) GetByExternalID(externalID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// Create provisions a record explicitly, e.g. from an identity lifecycle
// webhook or an administrative call.
func (s *UserService) Create(req *dto.CreateUserRequest) (*models.User, error) {
	if req.ExternalID == "" {
		return nil, errors.New("external id is required")
	}

	user := newUserFromSnapshot(&identity.ProfileSnapshot{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		Username:   req.Username,
		Photo:      req.Photo,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	}, s.initialGrant)

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// UpdateProfile overwrites the snapshot fields that are present in the
// request. The credit balance is never touched here.
func (s *UserService) UpdateProfile(externalID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Photo != nil {
		updates["photo"] = *req.Photo
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// Delete removes the record permanently. A later Resolve on the same
// external id provisions a brand-new record at the initial grant.
func (s *UserService) Delete(externalID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted", "external_id", externalID)
	return &user, nil
}

// A partial snapshot never blocks provisioning; missing fields stay empty
// and a later profile update heals the record. The username falls back to
// a prefix of the external id.
func newUserFromSnapshot(snap *identity.ProfileSnapshot, initialGrant int64) models.User {
	username := snap.Username
	if username == "" {
		username = snap.ExternalID
		if len(username) > 8 {
			username = username[:8]
		}
	}

	return models.User{
		ID:            uuid.New(),
		ExternalID:    snap.ExternalID,
		Email:         snap.Email,
		Username:      username,
		Photo:         snap.Photo,
		FirstName:     snap.FirstName,
		LastName:      snap.LastName,
		CreditBalance: initialGrant,
	}
}
