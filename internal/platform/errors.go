package platform

import (
	"errors"
	"fmt"
)

// Platform error codes the core cares about. Everything else is opaque.
const (
	codeUnknownEmoji      = 10014
	codeUnknownMessage    = 10008
	codeMissingPermission = 50013
)

// APIError represents a non-2xx response from the platform REST API.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 && e.Message != "" {
		return fmt.Sprintf("platform error %d (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("platform error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("platform error (%d)", e.Status)
}

type apiErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// IsUnknownEmoji reports whether the error is the platform rejecting an
// emoji the acting credential cannot render.
func IsUnknownEmoji(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeUnknownEmoji
}

// IsUnknownMessage reports whether the error means the referenced
// message no longer exists.
func IsUnknownMessage(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeUnknownMessage
}

// IsPermissionDenied reports whether the error is a permission rejection.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == codeMissingPermission
}
