// Package errors provides unified error handling for dingrobot.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code represents an error code for categorization.
type Code string

// RobotError is the unified error type carried across the dispatch
// pipeline. Code categorizes the failure, Cause preserves the original
// error for unwrapping.
type RobotError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *RobotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *RobotError) Unwrap() error {
	return e.Cause
}

// Is matches against another RobotError by code.
func (e *RobotError) Is(target error) bool {
	if robotErr, ok := target.(*RobotError); ok {
		return e.Code == robotErr.Code
	}
	return false
}

// New creates a new RobotError.
func New(code Code, message string) *RobotError {
	return &RobotError{Code: code, Message: message}
}

// Newf creates a new RobotError with a formatted message.
func Newf(code Code, format string, args ...any) *RobotError {
	return &RobotError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a RobotError.
func Wrap(cause error, code Code, message string) *RobotError {
	return &RobotError{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(cause error, code Code, format string, args ...any) *RobotError {
	return &RobotError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the error code from err, unwrapping as needed.
// Returns an empty code when err carries no RobotError.
func CodeOf(err error) Code {
	var robotErr *RobotError
	if stderrors.As(err, &robotErr) {
		return robotErr.Code
	}
	return ""
}

// RemoteError reports a webhook delivery that reached the DingTalk API but
// was rejected by its response envelope. ErrCode and ErrMsg are carried
// verbatim from the envelope.
type RemoteError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("dingtalk api error (code %d): %s", e.ErrCode, e.ErrMsg)
}

// RemoteRejected builds the unified error for a non-zero envelope errcode.
func RemoteRejected(errcode int, errmsg string) *RobotError {
	return &RobotError{
		Code:    ErrRemoteRejected,
		Message: "webhook request rejected",
		Cause:   &RemoteError{ErrCode: errcode, ErrMsg: errmsg},
	}
}

// AsRemoteError extracts the envelope rejection from err, if any.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if stderrors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}
