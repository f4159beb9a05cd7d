package verification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OneTimeVerificationSession records an issued liveness-verification PIN.
// Created when the verification link is requested, read back by the results
// poll, never updated.
type OneTimeVerificationSession struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID `gorm:"column:application_id;index" json:"application_id"`
	Pin           string    `json:"-"`
	IDNumber      string    `gorm:"column:id_number" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps the historical table name.
func (OneTimeVerificationSession) TableName() string {
	return "one_time_verification_sessions"
}

// OTVRepository persists one-time verification sessions.
type OTVRepository interface {
	Create(ctx context.Context, session *OneTimeVerificationSession) error
	LatestForApplication(ctx context.Context, applicationID uuid.UUID) (*OneTimeVerificationSession, error)
}

type gormOTVRepository struct {
	db *gorm.DB
}

// NewOTVRepository creates a GORM-backed session repository
func NewOTVRepository(db *gorm.DB) OTVRepository {
	return &gormOTVRepository{db: db}
}

func (r *gormOTVRepository) Create(ctx context.Context, session *OneTimeVerificationSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *gormOTVRepository) LatestForApplication(ctx context.Context, applicationID uuid.UUID) (*OneTimeVerificationSession, error) {
	var session OneTimeVerificationSession
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}
