// Package verification hosts the gateway adapters around the external
// identity, bureau and fraud vendors. Every adapter follows the same shape:
// call the vendor, normalize the answer into a Result, and append exactly one
// row to the audit trail whatever the outcome.
package verification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/sms"
	"peakcredit/origination-backend/internal/vendors/bureau"
	"peakcredit/origination-backend/internal/vendors/fraud"
	"peakcredit/origination-backend/internal/vendors/identity"
)

// PassingScore is the minimum bureau score an applicant needs.
const PassingScore = 600

// Service runs the individual verification checks.
type Service struct {
	identity *identity.Client
	bureau   *bureau.Client
	fraud    *fraud.Client

	codec       *pii.Codec
	recorder    *audit.Recorder
	profiles    ProfileWriter
	otvSessions OTVRepository
	sms         sms.Sender

	verificationBaseURL string
	logger              *zap.Logger
}

// ProfileWriter is the slice of the profile collaborator the checks need:
// the idempotent encrypted-ID write-back.
type ProfileWriter interface {
	SetEncryptedID(ctx context.Context, id uuid.UUID, encrypted string) error
}

// NewService creates the verification service
func NewService(
	identityClient *identity.Client,
	bureauClient *bureau.Client,
	fraudClient *fraud.Client,
	codec *pii.Codec,
	recorder *audit.Recorder,
	profiles ProfileWriter,
	otvSessions OTVRepository,
	smsSender sms.Sender,
	verificationBaseURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		identity:            identityClient,
		bureau:              bureauClient,
		fraud:               fraudClient,
		codec:               codec,
		recorder:            recorder,
		profiles:            profiles,
		otvSessions:         otvSessions,
		sms:                 smsSender,
		verificationBaseURL: verificationBaseURL,
		logger:              logger,
	}
}

// record appends the audit row for one adapter attempt. The subject ID is
// encrypted for the row; an encryption failure downgrades to an empty subject
// rather than blocking the trail.
func (s *Service) record(ctx context.Context, result Result, payload interface{}, idNumber string, profileID *uuid.UUID) {
	s.recordStatus(ctx, result, result.auditStatus(), payload, idNumber, profileID)
}

func (s *Service) recordStatus(ctx context.Context, result Result, status audit.Status, payload interface{}, idNumber string, profileID *uuid.UUID) {
	encrypted := ""
	if idNumber != "" {
		var err error
		encrypted, err = s.codec.Encrypt(idNumber)
		if err != nil {
			s.logger.Error("failed to encrypt audit subject", zap.Error(err))
		}
	}
	s.recorder.Record(ctx, audit.Entry{
		CheckType:         result.Check,
		Vendor:            result.Vendor,
		Status:            status,
		Payload:           payload,
		IDNumberEncrypted: encrypted,
		ProfileID:         profileID,
	})
}

// CreditScoreInput identifies the subject of a score enquiry.
type CreditScoreInput struct {
	IDNumber  string
	ProfileID *uuid.UUID
}

// CreditScore runs the bureau score enquiry. A score below PassingScore is a
// domain rejection, not a transport failure: the call itself succeeded.
func (s *Service) CreditScore(ctx context.Context, in CreditScoreInput) Result {
	check, vendor := audit.CheckCreditBureau, bureau.Name

	resp, raw, err := s.bureau.Score(ctx, in.IDNumber)
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	if resp.HasErrors || !resp.TransactionCompleted {
		reason := resp.ErrorDescription
		if reason == "" {
			reason = "credit bureau reported a transaction error"
		}
		result := fail(check, vendor, FailRejected, reason, raw)
		s.record(ctx, result, resp, in.IDNumber, in.ProfileID)
		return result
	}

	data, err := resp.ParseReturnData()
	if err != nil || len(data.Results) == 0 {
		result := fail(check, vendor, FailRejected, "no credit data on file for this ID number (thin file)", raw)
		s.record(ctx, result, resp, in.IDNumber, in.ProfileID)
		return result
	}

	score := data.Results[0].Score
	band := CreditBand(score)

	var result Result
	if score < PassingScore {
		result = fail(check, vendor, FailRejected,
			fmt.Sprintf("credit score %d is below the minimum of %d (%s)", score, PassingScore, band), raw)
	} else {
		result = pass(check, vendor, fmt.Sprintf("credit score %d (%s)", score, band), raw)
		s.writeBackEncryptedID(ctx, in.IDNumber, in.ProfileID)
	}
	s.record(ctx, result, resp, in.IDNumber, in.ProfileID)
	return result
}

// writeBackEncryptedID stores the encrypted ID number on the owning profile.
// Idempotent; failures are logged, never surfaced to the caller.
func (s *Service) writeBackEncryptedID(ctx context.Context, idNumber string, profileID *uuid.UUID) {
	if profileID == nil {
		return
	}
	encrypted, err := s.codec.Encrypt(idNumber)
	if err != nil {
		s.logger.Error("failed to encrypt ID number for profile write-back", zap.Error(err))
		return
	}
	if err := s.profiles.SetEncryptedID(ctx, *profileID, encrypted); err != nil {
		s.logger.Error("failed to write encrypted ID back to profile",
			zap.String("profile_id", profileID.String()),
			zap.Error(err))
	}
}

// CreditBand maps a bureau score to its display band. Lower edges are
// inclusive.
func CreditBand(score int) string {
	switch {
	case score >= 750:
		return "Excellent"
	case score >= 700:
		return "Good"
	case score >= 650:
		return "Fair"
	case score >= 600:
		return "Poor"
	default:
		return "Very Poor"
	}
}

// DebtReviewInput identifies the subject of a debt review enquiry.
type DebtReviewInput struct {
	IDNumber  string
	ProfileID *uuid.UUID
}

// DebtReview checks whether the subject is flagged under debt review at the
// bureau. Audited under the bureau check type; the payload carries the
// enquiry kind.
func (s *Service) DebtReview(ctx context.Context, in DebtReviewInput) Result {
	check, vendor := audit.CheckCreditBureau, bureau.Name

	resp, data, raw, err := s.bureau.DebtReview(ctx, in.IDNumber)
	payload := map[string]interface{}{"enquiry": "debt_review", "response": resp}
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		payload["error"] = err.Error()
		s.record(ctx, result, payload, in.IDNumber, in.ProfileID)
		return result
	}

	if data == nil {
		reason := resp.ErrorDescription
		if reason == "" {
			reason = "debt review status could not be determined"
		}
		result := fail(check, vendor, FailRejected, reason, raw)
		s.record(ctx, result, payload, in.IDNumber, in.ProfileID)
		return result
	}

	var result Result
	if data.UnderDebtReview {
		result = fail(check, vendor, FailRejected, "applicant is under debt review", raw)
	} else {
		result = pass(check, vendor, "not under debt review", raw)
	}
	s.record(ctx, result, payload, in.IDNumber, in.ProfileID)
	return result
}
