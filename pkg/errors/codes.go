// Package errors defines error codes and categories for dingrobot.
package errors

// Error categories. Codes are prefixed by the category they belong to.
const (
	// Configuration errors (CON)
	ConfigurationCategory = "CON"

	// Message errors (MSG)
	MessageCategory = "MSG"

	// Network errors (NET)
	NetworkCategory = "NET"

	// Remote API errors (REM)
	RemoteCategory = "REM"

	// Queue errors (QUE)
	QueueCategory = "QUE"

	// System errors (SYS)
	SystemCategory = "SYS"
)

// Configuration error codes
const (
	ErrInvalidConfig Code = "CON001" // Invalid configuration value
	ErrMissingConfig Code = "CON002" // Missing required configuration
)

// Message error codes
const (
	ErrInvalidMessage  Code = "MSG001" // Invalid message shape
	ErrMessageEncoding Code = "MSG002" // Message serialization failed
)

// Network error codes
const (
	ErrNetworkTimeout    Code = "NET001" // Request timed out
	ErrNetworkConnection Code = "NET002" // Connection-level failure
	ErrServerError       Code = "NET003" // Remote returned HTTP 5xx
	ErrClientError       Code = "NET004" // Remote returned HTTP 4xx
	ErrBadResponse       Code = "NET005" // Response body was not a valid envelope
)

// Remote API error codes
const (
	ErrRemoteRejected Code = "REM001" // Delivered but rejected by the API envelope
)

// Queue error codes
const (
	ErrQueueFull   Code = "QUE001" // Queue is at capacity
	ErrQueueClosed Code = "QUE002" // Queue has been closed
)

// System error codes
const (
	ErrSendCanceled Code = "SYS001" // Caller canceled the operation
)

// Category returns the category prefix of a code.
func (c Code) Category() string {
	if len(c) < 3 {
		return ""
	}
	return string(c[:3])
}
