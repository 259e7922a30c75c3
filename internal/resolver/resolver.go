// Package resolver defines the boundary to the replay service that knows
// which shader is bound at each stage of an event.
//
// The replay keeps a single "current event" cursor. Selecting an event moves
// that cursor for everyone, so the contract is strictly sequential: a caller
// opens a Session for one event, performs all stage queries, and closes it
// before the next event is opened. Implementations reject a second Begin
// while a session is still open.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/shaderidx/internal/capture"
)

var (
	// ErrSessionBusy is returned by Begin while another session is open.
	ErrSessionBusy = errors.New("resolver: another event session is still open")

	// ErrSessionClosed is returned by calls on a session after Close.
	ErrSessionClosed = errors.New("resolver: session closed")

	// ErrUnsupportedStage is returned when a stage outside SupportedStages
	// is queried.
	ErrUnsupportedStage = errors.New("resolver: stage not supported by backend")
)

// Resolver establishes events as the replay's current point of reference.
type Resolver interface {
	// API reports the graphics API of the capture being replayed.
	API() capture.API

	// SupportedStages lists the stages the backend can query, in canonical
	// order. Callers query it once at startup.
	SupportedStages() []capture.Stage

	// Begin moves the replay cursor to ev and returns the session that owns
	// it. Fails with ErrSessionBusy if a session is open and with an
	// *UnavailableError if the event cannot be established.
	Begin(ctx context.Context, ev capture.EventID) (Session, error)
}

// Session is exclusive access to the replay cursor positioned at one event.
type Session interface {
	// Event returns the event the cursor is positioned at.
	Event() capture.EventID

	// Shader returns the identity bound at stage, or capture.NullShader.
	Shader(stage capture.Stage) (capture.ShaderID, error)

	// Bytecode returns the raw payload of the shader bound at stage.
	// Callers only ask for it the first time an identity is observed.
	Bytecode(stage capture.Stage) ([]byte, error)

	// Close releases the cursor. Closing twice is a no-op.
	Close() error
}

// UnavailableError reports that the replay could not make an event current.
type UnavailableError struct {
	Event  capture.EventID
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("resolver: cannot set event %d as current: %s", e.Event, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable returns true if err is, or wraps, an *UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
