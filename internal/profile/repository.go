package profile

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the profile collaborator surface the verification core needs.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	// SetEncryptedID stores the encrypted ID number on the profile. Safe to
	// call repeatedly; the last write wins and all writes decrypt to the same
	// plaintext.
	SetEncryptedID(ctx context.Context, id uuid.UUID, encrypted string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed profile repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) SetEncryptedID(ctx context.Context, id uuid.UUID, encrypted string) error {
	return r.db.WithContext(ctx).
		Model(&Profile{}).
		Where("id = ?", id).
		Update("id_number_encrypted", encrypted).Error
}
