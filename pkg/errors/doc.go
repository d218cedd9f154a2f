// Package errors provides structured error handling with error codes for
// the authentication flow client.
//
// Every failure the flow can produce carries a typed code so callers can
// branch on outcome class without string matching: local validation
// failures and throttle blocks (never sent to the network, never counted
// as attempts), server rejections (counted as attempts, may carry per-field
// messages), transport failures, and expired sessions.
//
// # Basic Usage
//
//	import "github.com/securedash/authflow/pkg/errors"
//
//	// Create an error with a code
//	err := errors.New(errors.ErrCodeValidationFailed, "Email address is required")
//
//	// Wrap a transport error
//	err := errors.Wrap(netErr, errors.ErrCodeNetwork, "Network error. Please check your connection.")
//
//	// Attach the server's field error map
//	err := errors.New(errors.ErrCodeInvalidCredentials, msg).WithFieldErrors(fieldErrors)
//
// # Inspection
//
//	if errors.IsCode(err, errors.ErrCodeSessionExpired) {
//		// clear session, return to login
//	}
//	for field, msg := range errors.GetFieldErrors(err) {
//		// annotate field
//	}
package errors
