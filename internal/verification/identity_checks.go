package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/vendors/identity"
)

// IdentityInput carries the encrypted subject for a demographic enquiry.
// Decryption happens just-in-time inside the adapter.
type IdentityInput struct {
	EncryptedIDNumber string
	ProfileID         *uuid.UUID
}

// IdentityVerification runs the demographic enquiry. An undecryptable
// subject fails fast, is logged and audited; the vendor is never called.
func (s *Service) IdentityVerification(ctx context.Context, in IdentityInput) Result {
	check, vendor := audit.CheckIDVerification, identity.Name

	idNumber, err := s.codec.Decrypt(in.EncryptedIDNumber)
	if err != nil {
		s.logger.Error("cannot verify subject with undecryptable ID number", zap.Error(err))
		result := fail(check, vendor, FailDecryption, "stored ID number could not be decrypted", nil)
		s.recorder.Record(ctx, audit.Entry{
			CheckType:         check,
			Vendor:            vendor,
			Status:            audit.StatusFailed,
			Payload:           map[string]string{"error": err.Error()},
			IDNumberEncrypted: in.EncryptedIDNumber,
			ProfileID:         in.ProfileID,
		})
		return result
	}

	detail, raw, err := s.identity.DemographicEnquiry(ctx, idNumber)
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, idNumber, in.ProfileID)
		return result
	}

	var result Result
	if detail.Verified {
		result = pass(check, vendor, fmt.Sprintf("demographic record verified for %s %s", detail.FirstName, detail.Surname), raw)
	} else {
		result = fail(check, vendor, FailRejected, "demographic record could not be verified", raw)
	}
	s.record(ctx, result, detail, idNumber, in.ProfileID)
	return result
}

// BankAccountInput carries one account verification request. FullName is the
// single stored "full name" field; the adapter splits it. The same adapter
// serves loan applicants and insurance policy holders.
type BankAccountInput struct {
	IDNumber      string
	AccountNumber string
	BranchCode    string
	AccountType   string
	BankName      string
	FullName      string
	ProfileID     *uuid.UUID
}

// BankAccountVerification runs bureau-avs for the subject's account.
func (s *Service) BankAccountVerification(ctx context.Context, in BankAccountInput) Result {
	check, vendor := audit.CheckBankVerification, identity.Name

	firstName, surname := splitFullName(in.FullName)

	// Only the leading token of the bank name is part of the contract; the
	// rest is vendor display metadata.
	bank := strings.Fields(in.BankName)
	bankToken := ""
	if len(bank) > 0 {
		bankToken = bank[0]
	}

	detail, raw, err := s.identity.VerifyAccount(ctx, identity.AccountVerificationRequest{
		IDNumber:      in.IDNumber,
		AccountNumber: in.AccountNumber,
		BranchCode:    in.BranchCode,
		AccountType:   in.AccountType,
		Bank:          bankToken,
		FirstName:     firstName,
		Surname:       surname,
	})
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	var result Result
	if detail.AccountExists && detail.AccountOpen && detail.IDNumberMatch {
		result = pass(check, vendor, "account verified against ID number", raw)
	} else {
		result = fail(check, vendor, FailRejected, "account could not be verified against ID number", raw)
	}
	s.record(ctx, result, detail, in.IDNumber, in.ProfileID)
	return result
}

// splitFullName splits a single full-name field: first token is the first
// name, the remainder is the surname.
func splitFullName(fullName string) (string, string) {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return "", ""
	}
	return tokens[0], strings.Join(tokens[1:], " ")
}

// CellphoneInput carries one cellphone match request.
type CellphoneInput struct {
	IDNumber        string
	CellphoneNumber string
	ProfileID       *uuid.UUID
}

// CellphoneMatch checks whether the cellphone number is linked to the ID.
// The confidence band is display metadata, not part of pass/fail.
func (s *Service) CellphoneMatch(ctx context.Context, in CellphoneInput) Result {
	check, vendor := audit.CheckCellphoneVerification, identity.Name

	detail, raw, err := s.identity.CellphoneMatch(ctx, in.IDNumber, in.CellphoneNumber)
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	var result Result
	if detail.Match {
		result = pass(check, vendor, fmt.Sprintf("cellphone linked to ID (%s confidence, %d)", ConfidenceBand(detail.Score), detail.Score), raw)
	} else {
		result = fail(check, vendor, FailRejected,
			fmt.Sprintf("cellphone not linked to ID (%s confidence, %d)", ConfidenceBand(detail.Score), detail.Score), raw)
	}
	s.record(ctx, result, detail, in.IDNumber, in.ProfileID)
	return result
}

// ConfidenceBand maps a 0-100 confidence score to its display band.
func ConfidenceBand(score int) string {
	switch {
	case score >= 80:
		return "High"
	case score >= 50:
		return "Medium"
	default:
		return "Low"
	}
}

// DeceasedInput identifies the subject of a deceased status check.
type DeceasedInput struct {
	IDNumber  string
	ProfileID *uuid.UUID
}

// DeceasedStatus checks the deceased register. The vendor's 10084 code means
// the register itself is down: that maps to a distinct unavailable condition,
// still audited as failed.
func (s *Service) DeceasedStatus(ctx context.Context, in DeceasedInput) Result {
	check, vendor := audit.CheckDeceasedStatus, identity.Name

	resp, raw, err := s.identity.DeceasedStatus(ctx, in.IDNumber)
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	var result Result
	switch {
	case resp.Code == identity.CodeServiceUnavailable:
		result = fail(check, vendor, FailUnavailable, "deceased status service is temporarily unavailable", raw)
	case resp.Code != 0:
		result = fail(check, vendor, FailRejected, resp.Message, raw)
	case resp.Detail.Deceased:
		result = fail(check, vendor, FailRejected, "subject is registered as deceased", raw)
	default:
		result = pass(check, vendor, "subject is not registered as deceased", raw)
	}
	s.record(ctx, result, resp, in.IDNumber, in.ProfileID)
	return result
}
