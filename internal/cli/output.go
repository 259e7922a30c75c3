package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/shaderidx/internal/extract"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Extraction aborted (resolver, export, report, index database)
	ExitCommandError = 2 // Command error (bad flags, missing or invalid capture, database not found)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set once the error has been written to the command output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written by OutputFormatter.Fail.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// runExitError maps an extraction failure to its exit code. Input problems
// are command errors; everything after loading is a run failure.
func runExitError(err error) *ExitError {
	switch extract.KindOf(err) {
	case extract.KindMissingInput, extract.KindInvalidInput:
		return WrapExitError(ExitCommandError, "cannot read capture", err)
	}
	return WrapExitError(ExitFailure, "extraction failed", err)
}

// errorCode returns the machine-readable code reported for err.
func errorCode(err error) string {
	if kind := extract.KindOf(err); kind != "" {
		return string(kind)
	}
	if GetExitCode(err) == ExitCommandError {
		return "COMMAND_ERROR"
	}
	return "FAILURE"
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
	NoColor   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // extract error kind or COMMAND_ERROR
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	f.status(color.FgRed, "✗", fmt.Sprintf("Error [%s]: %s", code, message))
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err in the configured format and returns it marked as
// reported, so commands can end with `return f.Fail(err)`.
func (f *OutputFormatter) Fail(err error) error {
	var details any
	var re *extract.Error
	if errors.As(err, &re) {
		d := map[string]any{}
		if re.HasEvent {
			d["event"] = re.Event
		}
		if !re.Shader.IsNull() {
			d["shader"] = string(re.Shader)
		}
		if re.Path != "" {
			d["path"] = re.Path
		}
		if len(d) > 0 {
			details = d
		}
	}
	if outErr := f.Error(errorCode(err), err.Error(), details); outErr != nil {
		return errors.Join(err, outErr)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		exitErr.Reported = true
		return err
	}
	return &ExitError{Code: GetExitCode(err), Message: "command failed", Err: err, Reported: true}
}

// Done prints a green check line in text mode.
func (f *OutputFormatter) Done(format string, args ...any) {
	if f.JSON() {
		return
	}
	f.status(color.FgGreen, "✓", fmt.Sprintf(format, args...))
}

// Warn prints a yellow line in text mode.
func (f *OutputFormatter) Warn(format string, args ...any) {
	if f.JSON() {
		return
	}
	f.status(color.FgYellow, "!", fmt.Sprintf(format, args...))
}

func (f *OutputFormatter) status(attr color.Attribute, mark, msg string) {
	c := color.New(attr)
	if f.NoColor {
		c.DisableColor()
	}
	c.Fprintf(f.Writer, "%s %s\n", mark, msg)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
