package extract

import (
	"errors"
	"fmt"

	"github.com/roach88/shaderidx/internal/capture"
)

// ErrorKind categorizes run failures. Every kind is fatal for the run.
type ErrorKind string

const (
	// KindMissingInput: no capture available. Nothing was written.
	KindMissingInput ErrorKind = "MISSING_INPUT"

	// KindInvalidInput: the capture exists but cannot be loaded. Nothing
	// was written.
	KindInvalidInput ErrorKind = "INVALID_INPUT"

	// KindResolverUnavailable: the replay could not make an event current.
	KindResolverUnavailable ErrorKind = "RESOLVER_UNAVAILABLE"

	// KindExportFailure: a shader payload could not be persisted.
	KindExportFailure ErrorKind = "EXPORT_FAILURE"

	// KindStageConflict: one shader was bound at two stages and the run
	// does not split records by stage.
	KindStageConflict ErrorKind = "STAGE_CONFLICT"

	// KindReportWrite: the call table could not be written.
	KindReportWrite ErrorKind = "REPORT_WRITE_FAILURE"

	// KindIndexDB: the SQLite index database could not be rebuilt.
	KindIndexDB ErrorKind = "INDEX_DB_FAILURE"
)

// Error is a fatal run failure with enough context to diagnose it.
type Error struct {
	Kind ErrorKind

	// Event is the event being processed; valid when HasEvent is set.
	Event    capture.EventID
	HasEvent bool
	// Shader is the identity being exported, when relevant.
	Shader capture.ShaderID
	// Path is the file involved, when relevant.
	Path string

	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.HasEvent {
		msg += fmt.Sprintf(" (event=%d", e.Event)
		if !e.Shader.IsNull() {
			msg += fmt.Sprintf(", shader=%s", e.Shader)
		}
		msg += ")"
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" [%s]", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a run error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// IsMissingInput returns true if err reports a missing capture.
func IsMissingInput(err error) bool {
	return KindOf(err) == KindMissingInput
}
