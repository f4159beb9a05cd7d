package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository loads document rows for the synchronizer.
type Repository interface {
	ListForApplication(ctx context.Context, applicationID uuid.UUID) ([]Document, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed document repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) ListForApplication(ctx context.Context, applicationID uuid.UUID) ([]Document, error) {
	var docs []Document
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("uploaded_at ASC").
		Find(&docs).Error
	return docs, err
}
