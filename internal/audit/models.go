package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CheckType identifies the kind of verification a row records.
type CheckType string

const (
	CheckCreditBureau          CheckType = "credit_bureau"
	CheckIDVerification        CheckType = "id_verification"
	CheckBankVerification      CheckType = "bank_verification"
	CheckCellphoneVerification CheckType = "cellphone_verification"
	CheckDeceasedStatus        CheckType = "deceased_status"
	CheckFraud                 CheckType = "fraud_check"
)

// Status is the recorded outcome of a check attempt.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// VerificationCheck is one immutable row of the compliance audit trail:
// created exactly once per adapter invocation, never mutated or deleted.
// When the vendor call itself failed, ResponsePayload holds the error detail.
type VerificationCheck struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	IDNumberEncrypted string         `gorm:"column:id_number_encrypted" json:"id_number_encrypted"`
	CheckType         CheckType      `gorm:"column:check_type;index" json:"check_type"`
	Vendor            string         `gorm:"column:vendor" json:"vendor"`
	Status            Status         `gorm:"column:status" json:"status"`
	ResponsePayload   datatypes.JSON `gorm:"column:response_payload" json:"response_payload"`
	CheckedAt         time.Time      `gorm:"column:checked_at" json:"checked_at"`
	ProfileID         *uuid.UUID     `gorm:"column:profile_id;index" json:"profile_id,omitempty"`
}

// TableName keeps the historical table name.
func (VerificationCheck) TableName() string {
	return "api_checks"
}
