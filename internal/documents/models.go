package documents

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType is the local document taxonomy. The loan-management system
// maps these to its own numeric file-type codes at upload time.
type DocumentType string

const (
	TypeIDDocument    DocumentType = "id_document"
	TypePayslip       DocumentType = "payslip"
	TypeBankStatement DocumentType = "bank_statement"
)

// Document is one stored application document row. The binary itself lives
// in the object store under StorageKey.
type Document struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID    `gorm:"column:application_id;index" json:"application_id"`
	DocumentType  DocumentType `gorm:"column:document_type" json:"document_type"`
	FileName      string       `json:"file_name"`
	StorageKey    string       `gorm:"column:storage_key" json:"storage_key"`
	FileSize      int64        `json:"file_size"`
	UploadedAt    time.Time    `json:"uploaded_at"`
}

// TableName keeps the historical table name.
func (Document) TableName() string {
	return "documents"
}
