package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied       = errors.New("notification permission denied")
	ErrMessagingUnavailable   = errors.New("messaging subsystem unavailable")
	ErrTokenAcquisitionFailed = errors.New("device token acquisition failed")
	ErrMessagingNotReady      = errors.New("messaging subsystem not ready")
)

// PlatformError is a failure reported by the host platform. Code identifies
// the failure category, e.g. "permission-blocked" or "subscription-missing".
type PlatformError struct {
	Op   string
	Code string
	Err  error
}

func (e *PlatformError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// ErrorCode extracts a platform failure code from err, or "unknown".
func ErrorCode(err error) string {
	var pe *PlatformError
	if errors.As(err, &pe) && pe.Code != "" {
		return pe.Code
	}
	return "unknown"
}
