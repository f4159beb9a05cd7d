package loansync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientReference cross-references a local application to the loan-management
// system's internal client number, written after a successful client_create.
type ClientReference struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID  uuid.UUID `gorm:"column:application_id;uniqueIndex" json:"application_id"`
	VendorClientNo string    `gorm:"column:vendor_client_no" json:"vendor_client_no"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName keeps the historical table name.
func (ClientReference) TableName() string {
	return "loan_system_clients"
}

// Repository persists client cross-references.
type Repository interface {
	SaveClientReference(ctx context.Context, ref *ClientReference) error
	GetByApplication(ctx context.Context, applicationID uuid.UUID) (*ClientReference, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed loansync repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) SaveClientReference(ctx context.Context, ref *ClientReference) error {
	return r.db.WithContext(ctx).Create(ref).Error
}

func (r *gormRepository) GetByApplication(ctx context.Context, applicationID uuid.UUID) (*ClientReference, error) {
	var ref ClientReference
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&ref).Error
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// ClientCreateInput is the validated input for client registration.
type ClientCreateInput struct {
	ApplicationID   uuid.UUID `json:"application_id" validate:"required"`
	FirstName       string    `json:"first_name" validate:"required"`
	Surname         string    `json:"surname" validate:"required"`
	IDNumber        string    `json:"id_number" validate:"required,len=13,numeric"`
	Gender          string    `json:"gender"`
	IDType          string    `json:"id_type"`
	DateOfBirth     string    `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	CellphoneNumber string    `json:"cellphone_number" validate:"required"`
	Address         string    `json:"address"`
}

// LoanApplicationInput is the validated input for loan-application
// registration.
type LoanApplicationInput struct {
	ApplicationID    uuid.UUID `json:"application_id" validate:"required"`
	Principal        string    `json:"principal" validate:"required"`
	TermDays         int       `json:"term_days" validate:"required,gt=0"`
	InterestRate     string    `json:"interest_rate" validate:"required"`
	FirstPaymentDate string    `json:"first_payment_date" validate:"required,datetime=2006-01-02"`
}

// UploadResult is one entry of the per-document upload outcome.
type UploadResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	FileName   string    `json:"file_name"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
}

// UploadSummary aggregates a document upload run.
type UploadSummary struct {
	TotalDocuments    int            `json:"total_documents"`
	SuccessfulUploads int            `json:"successful_uploads"`
	Results           []UploadResult `json:"results"`
}
