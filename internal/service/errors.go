package service

import "fmt"

// Error codes surfaced synchronously to API callers. Upstream failures never
// appear here; they are only visible as per-platform failures in the status
// poll.
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidPlatforms      = "INVALID_PLATFORMS"
	CodeMissingPlatformConfig = "MISSING_PLATFORM_CONFIG"
	CodeCharLimitExceeded     = "CHAR_LIMIT_EXCEEDED"
	CodeMissingSchedule       = "MISSING_SCHEDULE"
	CodeInvalidSchedule       = "INVALID_SCHEDULE"
	CodeUnitNotReady          = "UNIT_NOT_READY"
)

// CodedError is a validation or precondition failure with a machine-readable
// code.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewCodedError(code, format string, args ...interface{}) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}
