package verification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/vendors/bureau"
	"peakcredit/origination-backend/internal/vendors/fraud"
	"peakcredit/origination-backend/internal/vendors/identity"
)

// Checks is the adapter surface the orchestrator fans out over.
type Checks interface {
	IdentityVerification(ctx context.Context, in IdentityInput) Result
	CreditScore(ctx context.Context, in CreditScoreInput) Result
	DebtReview(ctx context.Context, in DebtReviewInput) Result
	FraudSearch(ctx context.Context, in FraudSearchInput) Result
}

// Orchestrator runs the configured KYC checks and aggregates the decision.
type Orchestrator struct {
	checks Checks
	codec  *pii.Codec
	logger *zap.Logger
}

// NewOrchestrator creates a KYC orchestrator
func NewOrchestrator(checks Checks, codec *pii.Codec, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{checks: checks, codec: codec, logger: logger}
}

// RunAllInput feeds the orchestrator the application and profile fields the
// individual checks need. The ID number arrives encrypted and is decrypted
// just-in-time.
type RunAllInput struct {
	EncryptedIDNumber string
	ProfileID         *uuid.UUID

	// Demographic fields for the fraud search.
	FirstName   string
	Surname     string
	DateOfBirth string
	Address     string
	HomePhone   string
	WorkPhone   string
	CellPhone   string
}

// Summary aggregates the four KYC checks. Overall is true iff every check
// passed; each individual failure message lands in Errors.
type Summary struct {
	IDVerification Result   `json:"id_verification"`
	CreditCheck    Result   `json:"credit_check"`
	DebtReview     Result   `json:"debt_review"`
	FraudCheck     Result   `json:"fraud_check"`
	Overall        bool     `json:"overall"`
	Errors         []string `json:"errors"`
}

// RunAll fans the four checks out concurrently and waits for every one of
// them: there is no short-circuit on an early failure, so the audit trail is
// always complete. A panicking adapter is contained at its own boundary and
// becomes a failed result.
func (o *Orchestrator) RunAll(ctx context.Context, in RunAllInput) Summary {
	var summary Summary

	idNumber, err := o.codec.Decrypt(in.EncryptedIDNumber)
	if err != nil {
		o.logger.Error("cannot run KYC checks for undecryptable subject", zap.Error(err))
		failure := fail(audit.CheckIDVerification, "", FailDecryption, "stored ID number could not be decrypted", nil)
		summary.IDVerification = failure
		summary.CreditCheck = fail(audit.CheckCreditBureau, "", FailDecryption, "stored ID number could not be decrypted", nil)
		summary.DebtReview = summary.CreditCheck
		summary.FraudCheck = fail(audit.CheckFraud, "", FailDecryption, "stored ID number could not be decrypted", nil)
		summary.Errors = []string{failure.Failure.Message}
		return summary
	}

	var g errgroup.Group
	g.Go(o.contained(&summary.IDVerification, audit.CheckIDVerification, identity.Name, func() Result {
		return o.checks.IdentityVerification(ctx, IdentityInput{
			EncryptedIDNumber: in.EncryptedIDNumber,
			ProfileID:         in.ProfileID,
		})
	}))
	g.Go(o.contained(&summary.CreditCheck, audit.CheckCreditBureau, bureau.Name, func() Result {
		return o.checks.CreditScore(ctx, CreditScoreInput{IDNumber: idNumber, ProfileID: in.ProfileID})
	}))
	g.Go(o.contained(&summary.DebtReview, audit.CheckCreditBureau, bureau.Name, func() Result {
		return o.checks.DebtReview(ctx, DebtReviewInput{IDNumber: idNumber, ProfileID: in.ProfileID})
	}))
	g.Go(o.contained(&summary.FraudCheck, audit.CheckFraud, fraud.Name, func() Result {
		return o.checks.FraudSearch(ctx, FraudSearchInput{
			IDNumber:    idNumber,
			FirstName:   in.FirstName,
			Surname:     in.Surname,
			DateOfBirth: in.DateOfBirth,
			Address:     in.Address,
			HomePhone:   in.HomePhone,
			WorkPhone:   in.WorkPhone,
			CellPhone:   in.CellPhone,
			ProfileID:   in.ProfileID,
		})
	}))

	// The closures never return errors; Wait is purely the join point.
	_ = g.Wait()

	summary.Errors = []string{}
	for _, result := range []Result{summary.IDVerification, summary.CreditCheck, summary.DebtReview, summary.FraudCheck} {
		if !result.Passed && result.Failure != nil {
			summary.Errors = append(summary.Errors, result.Failure.Message)
		}
	}
	summary.Overall = len(summary.Errors) == 0

	return summary
}

// contained wraps one adapter call so a panic inside it becomes a failed
// result instead of tearing down the whole aggregate.
func (o *Orchestrator) contained(slot *Result, check audit.CheckType, vendor string, run func() Result) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("verification adapter panicked",
					zap.String("check", string(check)),
					zap.Any("panic", r))
				*slot = fail(check, vendor, FailTransport, fmt.Sprintf("check aborted: %v", r), nil)
			}
		}()
		*slot = run()
		return nil
	}
}
