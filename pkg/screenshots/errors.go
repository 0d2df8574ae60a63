package screenshots

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCapture matches every CaptureError via errors.Is.
var ErrCapture = errors.New("display capture failed")

// ErrPermissionRequired indicates the OS refused screen recording access.
var ErrPermissionRequired = errors.New("screen recording permission required for display capture")

// CaptureError reports a failed step of native display acquisition. It is
// never retried inside the source.
type CaptureError struct {
	Step string
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture: %s failed", e.Step)
	}
	return fmt.Sprintf("capture: %s: %v", e.Step, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

func (e *CaptureError) Is(target error) bool {
	return target == ErrCapture
}

type permissionError struct {
	message string
}

func (e *permissionError) Error() string {
	return e.message
}

func (e *permissionError) Is(target error) bool {
	return target == ErrPermissionRequired
}

func newPermissionError(message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		trimmed = ErrPermissionRequired.Error()
	}
	return &permissionError{message: trimmed}
}
