package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists verification check rows. Append and read only; the
// trail is immutable.
type Repository interface {
	Create(ctx context.Context, check *VerificationCheck) error
	ListForProfile(ctx context.Context, profileID uuid.UUID) ([]VerificationCheck, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed audit repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, check *VerificationCheck) error {
	return r.db.WithContext(ctx).Create(check).Error
}

func (r *gormRepository) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]VerificationCheck, error) {
	var checks []VerificationCheck
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("checked_at DESC").
		Find(&checks).Error
	return checks, err
}
