package errors

import (
	"context"
	stderrors "errors"
	"net"
)

// retryableCodes encodes the transient-failure taxonomy: network errors,
// client-side timeouts and HTTP 5xx responses are worth another attempt.
// Client errors (4xx), envelope rejections and malformed responses are not.
var retryableCodes = map[Code]bool{
	ErrNetworkTimeout:    true,
	ErrNetworkConnection: true,
	ErrServerError:       true,
}

// IsRetryableCode reports whether a code describes a transient failure.
func IsRetryableCode(code Code) bool {
	return retryableCodes[code]
}

// IsRetryable reports whether err describes a transient failure that an
// automatic retry may resolve. A canceled context is never retryable: the
// caller has already given up on the call.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	var robotErr *RobotError
	if stderrors.As(err, &robotErr) {
		return IsRetryableCode(robotErr.Code)
	}
	// Bare transport errors that never went through classification.
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}
