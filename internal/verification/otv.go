package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/sms"
	"peakcredit/origination-backend/internal/vendors/identity"
)

// OTVRequestInput starts a one-time (liveness/selfie) verification.
type OTVRequestInput struct {
	ApplicationID   uuid.UUID
	IDNumber        string
	CellphoneNumber string
	ProfileID       *uuid.UUID
}

// RequestOneTimeVerification asks the vendor for a PIN, persists the session
// and sends the verification link by SMS. A missing phone number is a
// precondition failure: no vendor call is attempted and nothing is audited.
// The vendor attempt itself is audited as pending; the outcome arrives later
// via OneTimeVerificationResults.
func (s *Service) RequestOneTimeVerification(ctx context.Context, in OTVRequestInput) Result {
	check, vendor := audit.CheckIDVerification, identity.Name

	if in.CellphoneNumber == "" {
		return fail(check, vendor, FailPrecondition, "a cellphone number is required for one-time verification", nil)
	}
	number, err := sms.NormalizeZA(in.CellphoneNumber)
	if err != nil {
		return fail(check, vendor, FailPrecondition, err.Error(), nil)
	}

	detail, raw, err := s.identity.RequestPin(ctx, in.IDNumber, number)
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	session := &OneTimeVerificationSession{
		ID:            uuid.New(),
		ApplicationID: in.ApplicationID,
		Pin:           detail.Pin,
		IDNumber:      in.IDNumber,
		CreatedAt:     time.Now(),
	}
	if err := s.otvSessions.Create(ctx, session); err != nil {
		// Without the stored PIN the results poll can never find the session.
		s.logger.Error("failed to persist one-time verification session", zap.Error(err))
		result := fail(check, vendor, FailTransport, "failed to persist verification session", raw)
		s.recordStatus(ctx, result, audit.StatusFailed, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	url := fmt.Sprintf("%s/verify/%s", strings.TrimRight(s.verificationBaseURL, "/"), detail.ReferenceID)
	message := fmt.Sprintf("Complete your verification at %s using PIN %s", url, detail.Pin)
	if err := s.sms.Send(ctx, number, message); err != nil {
		s.logger.Error("failed to send verification sms", zap.Error(err))
		result := fail(check, vendor, FailTransport, "verification link could not be delivered", raw)
		s.recordStatus(ctx, result, audit.StatusFailed, map[string]string{"error": err.Error()}, in.IDNumber, in.ProfileID)
		return result
	}

	result := pass(check, vendor, "verification link sent", raw)
	s.recordStatus(ctx, result, audit.StatusPending, detail, in.IDNumber, in.ProfileID)
	return result
}

// OneTimeVerificationResults polls the outcome of the most recent session
// for the application. A non-zero vendor code is a verification failure,
// not a transport failure.
func (s *Service) OneTimeVerificationResults(ctx context.Context, applicationID uuid.UUID, profileID *uuid.UUID) Result {
	check, vendor := audit.CheckIDVerification, identity.Name

	session, err := s.otvSessions.LatestForApplication(ctx, applicationID)
	if err != nil {
		return fail(check, vendor, FailPrecondition,
			fmt.Sprintf("no one-time verification session for application %s", applicationID), nil)
	}

	resp, raw, err := s.identity.PinResults(ctx, session.IDNumber, session.Pin)
	if err != nil {
		result := fail(check, vendor, classify(err), err.Error(), raw)
		s.record(ctx, result, map[string]string{"error": err.Error()}, session.IDNumber, profileID)
		return result
	}

	var result Result
	switch {
	case resp.Code != 0:
		result = fail(check, vendor, FailRejected,
			fmt.Sprintf("one-time verification failed: %s", resp.Message), raw)
	case strings.EqualFold(resp.Status, "verified"):
		result = pass(check, vendor,
			fmt.Sprintf("liveness verified (match score %.0f)", resp.MatchScore), raw)
	default:
		result = fail(check, vendor, FailRejected,
			fmt.Sprintf("one-time verification not completed (status %q)", resp.Status), raw)
	}
	s.record(ctx, result, resp, session.IDNumber, profileID)
	return result
}
