package evi

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestWrapError(t *testing.T) {
	if WrapError(nil, "x", ErrCodeUnknown) != nil {
		t.Fatal("WrapError(nil) should be nil")
	}

	err := WrapError(io.ErrUnexpectedEOF, "websocket read failed", ErrCodeWebSocket)
	if got, want := err.Error(), "websocket read failed: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("wrapped error should stay reachable")
	}
	if !IsErrorCode(fmt.Errorf("outer: %w", err), ErrCodeWebSocket) {
		t.Error("IsErrorCode should see through wrapping")
	}
}

func TestRemoteServiceError(t *testing.T) {
	var err error = &RemoteServiceError{Code: "E001", Slug: "auth", Message: "bad token"}
	want := "received error message from EVI websocket (E001): bad token"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsRemoteError(fmt.Errorf("run: %w", err)) {
		t.Error("IsRemoteError should see through wrapping")
	}
	if IsRemoteError(NewConnectionError("x")) {
		t.Error("local error reported as remote")
	}
}

func TestIsCriticalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"remote", &RemoteServiceError{Code: "E001"}, true},
		{"auth", NewAuthError("denied"), true},
		{"config", NewConfigError("bad"), true},
		{"token", NewTokenError("expired"), true},
		{"playback", NewPlaybackError("underflow"), false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCriticalError(tt.err); got != tt.want {
				t.Errorf("IsCriticalError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEVIErrorDetails(t *testing.T) {
	err := NewAudioError("no device")
	if v, ok := err.GetDetail("device"); !ok || v != "default" {
		t.Errorf("device detail = %v, %v", v, ok)
	}
	err.AddDetail("id", 3)
	if v, _ := err.GetDetail("id"); v != 3 {
		t.Errorf("id detail = %v", v)
	}
	if _, ok := NewConnectionError("x").GetDetail("id"); ok {
		t.Error("fresh error should have no details")
	}
}
