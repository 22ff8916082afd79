// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package brigade

import (
	"errors"
	"fmt"
)

// Vendor error codes carried in the response envelope.
const (
	codeOK           = 200
	codeUnauthorized = 401
	codeKeyInvalid   = 10004
)

// ErrKeyRejected marks an AuthError caused by the vendor refusing a key that
// was accepted before (expired or revoked).
var ErrKeyRejected = errors.New("vendor rejected key")

// AuthError is returned when the vendor refuses the credentials or the key.
// It is retried by the retry policy.
type AuthError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("brigade %s: authentication failed", e.Op)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (errorcode %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientNetworkError wraps connection failures, timeouts and 5xx responses.
type TransientNetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientNetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("brigade %s: transient failure (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("brigade %s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// VendorProtocolError is returned for malformed envelopes, unexpected HTTP
// status codes and non-success error codes. It is never retried.
type VendorProtocolError struct {
	Op         string
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *VendorProtocolError) Error() string {
	msg := fmt.Sprintf("brigade %s: protocol error", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (errorcode %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *VendorProtocolError) Unwrap() error { return e.Err }

// RetryError is returned once every attempt of an operation has failed.
type RetryError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("brigade %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// IsRetryable reports whether err should be retried by the retry policy.
func IsRetryable(err error) bool {
	var authErr *AuthError
	var netErr *TransientNetworkError
	return errors.As(err, &authErr) || errors.As(err, &netErr)
}

// ErrorType returns a short label for metrics and logs.
func ErrorType(err error) string {
	var authErr *AuthError
	var netErr *TransientNetworkError
	var protoErr *VendorProtocolError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &protoErr):
		return "vendor_protocol"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &netErr):
		return "network"
	default:
		return "other"
	}
}
