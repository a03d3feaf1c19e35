// Package session coordinates the capture-recognize-transcribe loop and its
// lifecycle state.
package session

import (
	"context"

	"github.com/rbright/segno/internal/fsm"
)

// DeviceAdapter acquires live capture streams.
type DeviceAdapter interface {
	Acquire(ctx context.Context) (DeviceHandle, error)
}

// DeviceHandle is one acquired capture stream.
type DeviceHandle interface {
	// Sample returns the most recent complete frame.
	Sample() ([]byte, error)
	// Release stops the stream; safe to call more than once.
	Release() error
}

// AdapterFunc adapts a function to DeviceAdapter.
type AdapterFunc func(ctx context.Context) (DeviceHandle, error)

func (f AdapterFunc) Acquire(ctx context.Context) (DeviceHandle, error) {
	return f(ctx)
}

// Recognizer turns one frame into a transcript token. Failures are reported
// as the empty token, never as an error.
type Recognizer interface {
	Recognize(ctx context.Context, frame []byte) string
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, frame []byte) string

func (f RecognizerFunc) Recognize(ctx context.Context, frame []byte) string {
	return f(ctx, frame)
}

// Notifier is the session-facing subset of indicator behavior.
type Notifier interface {
	StateChanged(ctx context.Context, state fsm.State)
	TranscriptChanged(ctx context.Context, transcript string)
	ShowError(ctx context.Context, message string)
}

// noopNotifier preserves session flow when no indicator is wired.
type noopNotifier struct{}

func (noopNotifier) StateChanged(context.Context, fsm.State)   {}
func (noopNotifier) TranscriptChanged(context.Context, string) {}
func (noopNotifier) ShowError(context.Context, string)         {}
