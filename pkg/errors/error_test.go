package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotError_Error(t *testing.T) {
	err := New(ErrInvalidConfig, "timeout must be positive")
	assert.Equal(t, "[CON001] timeout must be positive", err.Error())

	wrapped := Wrap(fmt.Errorf("dial tcp: refused"), ErrNetworkConnection, "webhook request failed")
	assert.Equal(t, "[NET002] webhook request failed: dial tcp: refused", wrapped.Error())
}

func TestRobotError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(cause, ErrNetworkConnection, "request failed")
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestRobotError_Is(t *testing.T) {
	err := Newf(ErrServerError, "dingtalk api returned status %d", 502)
	assert.True(t, stderrors.Is(err, New(ErrServerError, "other message")))
	assert.False(t, stderrors.Is(err, New(ErrClientError, "other message")))
}

func TestCodeOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrClientError, "status 400"))
	assert.Equal(t, ErrClientError, CodeOf(err))
	assert.Equal(t, Code(""), CodeOf(fmt.Errorf("plain")))
}

func TestCode_Category(t *testing.T) {
	assert.Equal(t, NetworkCategory, ErrNetworkTimeout.Category())
	assert.Equal(t, RemoteCategory, ErrRemoteRejected.Category())
	assert.Equal(t, "", Code("X").Category())
}

func TestRemoteRejected(t *testing.T) {
	err := RemoteRejected(310000, "keywords not in content")
	assert.Equal(t, ErrRemoteRejected, CodeOf(err))

	remote, ok := AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, 310000, remote.ErrCode)
	assert.Equal(t, "keywords not in content", remote.ErrMsg)
	assert.Contains(t, remote.Error(), "code 310000")

	_, ok = AsRemoteError(New(ErrClientError, "status 400"))
	assert.False(t, ok)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network timeout", New(ErrNetworkTimeout, "timed out"), true},
		{"connection failure", New(ErrNetworkConnection, "refused"), true},
		{"server error", New(ErrServerError, "status 503"), true},
		{"client error", New(ErrClientError, "status 400"), false},
		{"remote rejection", RemoteRejected(1, "token invalid"), false},
		{"bad response", New(ErrBadResponse, "not json"), false},
		{"canceled context", Wrap(context.Canceled, ErrSendCanceled, "canceled"), false},
		{"bare deadline", context.DeadlineExceeded, true},
		{"wrapped robot error", fmt.Errorf("attempt 2: %w", New(ErrServerError, "status 500")), true},
		{"plain error", fmt.Errorf("something"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
