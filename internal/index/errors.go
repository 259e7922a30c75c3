package index

import (
	"errors"
	"fmt"

	"github.com/roach88/shaderidx/internal/capture"
)

// ErrFinalized is returned when an index is mutated after Finalize.
var ErrFinalized = errors.New("index: already finalized")

// ExportError reports that a shader's payload could not be persisted.
// The record it would have created does not exist.
type ExportError struct {
	ID    capture.ShaderID
	Stage capture.Stage
	Event capture.EventID
	File  string
	Op    string
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export shader %s (%s) at event %d: %s %s: %v", e.ID, e.Stage, e.Event, e.Op, e.File, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// StageConflictError reports an identity bound at two different stages
// while the index runs with StageConflictFail.
type StageConflictError struct {
	ID     capture.ShaderID
	Event  capture.EventID
	First  capture.Stage
	Second capture.Stage
}

func (e *StageConflictError) Error() string {
	return fmt.Sprintf("shader %s bound at %s by event %d, first seen at %s", e.ID, e.Second, e.Event, e.First)
}

// IsExportError returns true if err is, or wraps, an *ExportError.
func IsExportError(err error) bool {
	var ee *ExportError
	return errors.As(err, &ee)
}

// IsStageConflict returns true if err is, or wraps, a *StageConflictError.
func IsStageConflict(err error) bool {
	var se *StageConflictError
	return errors.As(err, &se)
}
