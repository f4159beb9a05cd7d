// Package vendors holds the typed errors shared by all external vendor
// clients. Transport and auth failures never propagate as raw errors from
// the net/http layer; every client translates them here so handlers can map
// them to status codes with errors.As.
package vendors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AuthError means a vendor login handshake failed: non-2xx status, a
// malformed body, or a rejected credential.
type AuthError struct {
	Vendor string
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s login failed: %s", e.Vendor, e.Reason)
	}
	return fmt.Sprintf("%s login failed: %v", e.Vendor, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TimeoutError means an outbound vendor call exceeded its deadline.
type TimeoutError struct {
	Vendor string
	Op     string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out: %v", e.Vendor, e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ValidationError means a request or response payload failed schema
// validation, either locally or as reported by the vendor.
type ValidationError struct {
	Vendor string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s payload validation failed (%d fields)", e.Vendor, len(e.Fields))
}

// WrapTransport classifies a transport-level failure from an outbound call.
// Deadline and net timeouts become TimeoutError; everything else is wrapped
// with the vendor and operation name.
func WrapTransport(vendor, op string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Vendor: vendor, Op: op, Err: err}
	}
	return fmt.Errorf("%s %s: %w", vendor, op, err)
}

// IsTimeout reports whether err is a vendor call timeout.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
