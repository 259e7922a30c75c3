package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shaderidx/internal/extract"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("EXPORT_FAILURE", "disk full", map[string]string{"path": "out/A.Pixel.dxbc"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EXPORT_FAILURE", resp.Error.Code)
	assert.Equal(t, "disk full", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose, NoColor: true}

			require.NoError(t, formatter.Error("MISSING_INPUT", "no capture", map[string]string{"path": "x.yaml"}))
			assert.Contains(t, buf.String(), "✗ Error [MISSING_INPUT]: no capture")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	runErr := &extract.Error{Kind: extract.KindResolverUnavailable, Event: 7, HasEvent: true, Err: errors.New("device lost")}
	err := formatter.Fail(runExitError(runErr))
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "RESOLVER_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, float64(7), resp.Error.Details["event"])
}

func TestOutputFormatter_FailMarksReported(t *testing.T) {
	formatter := &OutputFormatter{Format: "text", Writer: &bytes.Buffer{}, NoColor: true}

	exitErr := NewExitError(ExitCommandError, "bad flags")
	assert.False(t, IsReported(exitErr))
	err := formatter.Fail(exitErr)
	assert.True(t, IsReported(err))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	plain := errors.New("boom")
	err = formatter.Fail(plain)
	assert.True(t, IsReported(err))
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.False(t, IsReported(nil))
	assert.False(t, IsReported(plain))
}

func TestOutputFormatter_StatusLinesTextOnly(t *testing.T) {
	buf := &bytes.Buffer{}
	text := &OutputFormatter{Format: "text", Writer: buf, NoColor: true}
	text.Done("%d unique shaders saved", 2)
	text.Warn("nothing bound")
	assert.Equal(t, "✓ 2 unique shaders saved\n! nothing bound\n", buf.String())

	buf.Reset()
	js := &OutputFormatter{Format: "json", Writer: buf}
	js.Done("ignored")
	js.Warn("ignored")
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "frame.yaml")

			assert.Empty(t, out.String(), "verbose logs must not corrupt stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Processing frame.yaml")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"command", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped", fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "bad flag")), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestRunExitError(t *testing.T) {
	missing := &extract.Error{Kind: extract.KindMissingInput, Path: "gone.yaml", Err: os.ErrNotExist}
	assert.Equal(t, ExitCommandError, GetExitCode(runExitError(missing)))
	assert.ErrorIs(t, runExitError(missing), os.ErrNotExist)

	export := &extract.Error{Kind: extract.KindExportFailure, Err: errors.New("disk full")}
	assert.Equal(t, ExitFailure, GetExitCode(runExitError(export)))

	assert.Equal(t, "EXPORT_FAILURE", errorCode(runExitError(export)))
	assert.Equal(t, "COMMAND_ERROR", errorCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, "FAILURE", errorCode(errors.New("x")))
}
