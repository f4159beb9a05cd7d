package verification

import (
	"encoding/json"
	"errors"

	"peakcredit/origination-backend/internal/audit"
	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/vendors"
)

// FailureKind tags why a check did not pass. The tags line up with the error
// taxonomy handlers use to pick a status code.
type FailureKind string

const (
	// FailAuth means the vendor login handshake failed.
	FailAuth FailureKind = "auth"
	// FailTimeout means the vendor call exceeded its deadline.
	FailTimeout FailureKind = "timeout"
	// FailValidation means a payload failed schema validation.
	FailValidation FailureKind = "validation"
	// FailPrecondition means required input was missing before any vendor call.
	FailPrecondition FailureKind = "precondition"
	// FailDecryption means the subject's stored ID number could not be decrypted.
	FailDecryption FailureKind = "decryption"
	// FailRejected means the vendor answered and the business answer is negative.
	FailRejected FailureKind = "rejected"
	// FailUnavailable means the upstream service behind the vendor is down.
	FailUnavailable FailureKind = "unavailable"
	// FailTransport covers every other network or protocol failure.
	FailTransport FailureKind = "transport"
)

// Failure describes why a check did not pass.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Result is the uniform answer every verification adapter returns. Exactly
// one audit row is written per Result, whatever the outcome.
type Result struct {
	Check   audit.CheckType `json:"check"`
	Vendor  string          `json:"vendor"`
	Passed  bool            `json:"passed"`
	Detail  string          `json:"detail,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
	Failure *Failure        `json:"failure,omitempty"`
}

func pass(check audit.CheckType, vendor, detail string, raw []byte) Result {
	return Result{Check: check, Vendor: vendor, Passed: true, Detail: detail, Raw: raw}
}

func fail(check audit.CheckType, vendor string, kind FailureKind, message string, raw []byte) Result {
	return Result{
		Check:   check,
		Vendor:  vendor,
		Raw:     raw,
		Failure: &Failure{Kind: kind, Message: message},
	}
}

// classify maps a vendor client error to a failure kind.
func classify(err error) FailureKind {
	var authErr *vendors.AuthError
	switch {
	case errors.As(err, &authErr):
		return FailAuth
	case vendors.IsTimeout(err):
		return FailTimeout
	case errors.Is(err, pii.ErrDecryption):
		return FailDecryption
	default:
		return FailTransport
	}
}

// auditStatus converts a result to the audit trail's status enum.
func (r Result) auditStatus() audit.Status {
	if r.Passed {
		return audit.StatusPassed
	}
	return audit.StatusFailed
}
