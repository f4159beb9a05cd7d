package verification

import (
	"context"

	"github.com/google/uuid"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/vendors/fraud"
)

// FraudSearchInput is the demographic payload for a fraud normal search.
type FraudSearchInput struct {
	IDNumber    string
	FirstName   string
	Surname     string
	DateOfBirth string
	Address     string
	HomePhone   string
	WorkPhone   string
	CellPhone   string
	ProfileID   *uuid.UUID
}

// FraudSearch runs the fraud normal search. The vendor's completion flag
// decides pass/fail; the returned document archive is passed through
// untouched after a ZIP signature check.
func (s *Service) FraudSearch(ctx context.Context, in FraudSearchInput) Result {
	check, vendor := audit.CheckFraud, fraud.Name

	resp, raw, err := s.fraud.NormalSearch(ctx, fraud.SearchRequest{
		IDNumber:    in.IDNumber,
		FirstName:   in.FirstName,
		Surname:     in.Surname,
		DateOfBirth: in.DateOfBirth,
		Address:     in.Address,
		HomePhone:   in.HomePhone,
		WorkPhone:   in.WorkPhone,
		CellPhone:   in.CellPhone,
	})
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	var result Result
	if resp.TransactionCompleted {
		detail := "fraud search completed"
		if resp.HasUsableArchive() {
			detail = "fraud search completed, supporting documents available"
		}
		result = pass(check, vendor, detail, raw)
	} else {
		result = fail(check, vendor, FailRejected, "fraud search did not complete", raw)
	}

	// The archive can be large; audit the outcome without the base64 body.
	s.record(ctx, result, map[string]interface{}{
		"transactionCompleted": resp.TransactionCompleted,
		"archiveUsable":        resp.HasUsableArchive(),
	}, in.IDNumber, in.ProfileID)
	return result
}
