package evi

import (
	"errors"
	"fmt"
	"time"
)

// Error codes as constants
const (
	ErrCodeConnectionFailed = "CONNECTION_FAILED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeAudioDevice      = "AUDIO_DEVICE_ERROR"
	ErrCodePlayback         = "PLAYBACK_ERROR"
	ErrCodeAudioDecode      = "AUDIO_DECODE_ERROR"
	ErrCodeWebSocket        = "WEBSOCKET_ERROR"
	ErrCodeConfigInvalid    = "CONFIG_INVALID"
	ErrCodeJSONParse        = "JSON_PARSE_ERROR"
	ErrCodeUnknown          = "UNKNOWN_ERROR"
	ErrCodeAuthFailed       = "AUTH_FAILED"
)

var (
	// ErrSessionRunning is returned by Session.Run while another Run is active.
	ErrSessionRunning = errors.New("session is already running")
	// ErrSocketClosed is returned when writing to a closed socket.
	ErrSocketClosed = errors.New("socket closed")
)

// EVIError is a local SDK failure with a machine readable code.
type EVIError struct {
	Message   string
	Code      string
	Timestamp float64
	Details   map[string]interface{}
	err       error
}

func (e *EVIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *EVIError) Unwrap() error {
	return e.err
}

func NewEVIError(message, code string) *EVIError {
	return &EVIError{
		Message:   message,
		Code:      code,
		Timestamp: float64(time.Now().UnixMilli()),
	}
}

// RemoteServiceError is raised when the chat socket delivers an error event.
// It ends the session.
type RemoteServiceError struct {
	Code    string
	Slug    string
	Message string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("received error message from EVI websocket (%s): %s", e.Code, e.Message)
}

// Specific error creators with common codes
func NewConnectionError(message string) *EVIError {
	return NewEVIError(message, ErrCodeConnectionFailed)
}

func NewAudioError(message string) *EVIError {
	return NewEVIError(message, ErrCodeAudioDevice).AddDetail("device", "default")
}

func NewPlaybackError(message string) *EVIError {
	return NewEVIError(message, ErrCodePlayback)
}

func NewTokenError(message string) *EVIError {
	return NewEVIError(message, ErrCodeTokenExpired).AddDetail("expiry", time.Now().UnixMilli())
}

func NewWebSocketError(message string) *EVIError {
	return NewEVIError(message, ErrCodeWebSocket)
}

func NewConfigError(message string) *EVIError {
	return NewEVIError(message, ErrCodeConfigInvalid)
}

func NewJSONError(message string) *EVIError {
	return NewEVIError(message, ErrCodeJSONParse)
}

func NewAuthError(message string) *EVIError {
	return NewEVIError(message, ErrCodeAuthFailed)
}

// WrapError wraps err as an EVIError, keeping it reachable via errors.Is/As.
func WrapError(err error, message, code string) *EVIError {
	if err == nil {
		return nil
	}
	vErr := NewEVIError(message, code)
	vErr.err = err
	return vErr
}

// Helper to check if error has specific code
func IsErrorCode(err error, code string) bool {
	var eviErr *EVIError
	if !errors.As(err, &eviErr) {
		return false
	}
	return eviErr.Code == code
}

// IsRemoteError reports whether err came from an EVI error event.
func IsRemoteError(err error) bool {
	var remote *RemoteServiceError
	return errors.As(err, &remote)
}

// Helper to add details to existing EVIError
func (e *EVIError) AddDetail(key string, value interface{}) *EVIError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Helper to get error details
func (e *EVIError) GetDetail(key string) (interface{}, bool) {
	if e.Details == nil {
		return nil, false
	}
	value, exists := e.Details[key]
	return value, exists
}

// Helper to check if error is critical
func IsCriticalError(err error) bool {
	if IsRemoteError(err) {
		return true
	}
	criticalCodes := []string{
		ErrCodeAuthFailed,
		ErrCodeTokenExpired,
		ErrCodeConfigInvalid,
	}
	for _, code := range criticalCodes {
		if IsErrorCode(err, code) {
			return true
		}
	}
	return false
}
