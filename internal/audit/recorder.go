package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Entry is one verification attempt to record.
type Entry struct {
	CheckType         CheckType
	Vendor            string
	Status            Status
	Payload           interface{}
	IDNumberEncrypted string
	ProfileID         *uuid.UUID
}

// Recorder appends verification attempts to the audit trail. Recording is
// best-effort relative to answering the caller: a persistence failure is
// logged and swallowed so it can never abort the adapter's response.
type Recorder struct {
	repo   Repository
	logger *zap.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo Repository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record writes one audit row and returns its id. The zero UUID means the
// write failed; the failure itself is only surfaced via process logs.
func (r *Recorder) Record(ctx context.Context, entry Entry) uuid.UUID {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		r.logger.Error("failed to marshal audit payload",
			zap.String("check_type", string(entry.CheckType)),
			zap.Error(err))
		payload = []byte(`{"error":"unserializable payload"}`)
	}

	check := &VerificationCheck{
		ID:                uuid.New(),
		IDNumberEncrypted: entry.IDNumberEncrypted,
		CheckType:         entry.CheckType,
		Vendor:            entry.Vendor,
		Status:            entry.Status,
		ResponsePayload:   datatypes.JSON(payload),
		CheckedAt:         time.Now(),
		ProfileID:         entry.ProfileID,
	}

	if err := r.repo.Create(ctx, check); err != nil {
		r.logger.Error("failed to persist verification check",
			zap.String("check_type", string(entry.CheckType)),
			zap.String("vendor", entry.Vendor),
			zap.String("status", string(entry.Status)),
			zap.Error(err))
		return uuid.Nil
	}
	return check.ID
}
