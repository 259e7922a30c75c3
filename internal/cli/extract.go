package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/extract"
	"github.com/roach88/shaderidx/internal/index"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	UseRange      bool
	Start         uint32
	End           uint32
	OutDir        string
	Ext           string
	StageConflict string
	JSONReport    bool
	Database      string
	Progress      bool
}

// ExtractSummary is the result of a successful extraction.
type ExtractSummary struct {
	Source     string   `json:"source"`
	API        string   `json:"api"`
	Range      string   `json:"range"`
	OutDir     string   `json:"out_dir"`
	Stages     []string `json:"stages"`
	Events     int      `json:"events"`
	Selected   int      `json:"selected"`
	Shaders    int      `json:"shaders"`
	Files      int      `json:"files"`
	Bytes      int64    `json:"bytes"`
	Report     string   `json:"report"`
	JSONReport string   `json:"json_report,omitempty"`
	IndexDB    string   `json:"index_db,omitempty"`
	RunID      string   `json:"run_id,omitempty"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <capture>",
		Short: "Export unique shaders and write the call table",
		Long: `Walk every draw and dispatch event of a capture, export each unique shader
once, and write call_table.txt listing the events that use every shader.

Output goes to "<capture dir>/<name>[_<start>-<end>]_binary" unless --out is
given. Shader files are named "<id>.<Stage>.<ext>".

Exit codes:
  0 - Extraction completed
  1 - Extraction aborted (resolver, export or report failure)
  2 - Command error (bad flags, missing or invalid capture)

Examples:
  shaderidx extract frame.yaml
  shaderidx extract frame.yaml --range --start 100 --end 250
  shaderidx extract frame.cue --json-report --db index.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.UseRange, "range", false, "only process events between --start and --end")
	cmd.Flags().Uint32Var(&opts.Start, "start", 0, "first event id of the range (inclusive)")
	cmd.Flags().Uint32Var(&opts.End, "end", 0, "last event id of the range (inclusive)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "output directory (default derived from the capture)")
	cmd.Flags().StringVar(&opts.Ext, "ext", "", "shader file extension (default per graphics API)")
	cmd.Flags().StringVar(&opts.StageConflict, "stage-conflict", "split", "shader bound at several stages: split|fail")
	cmd.Flags().BoolVar(&opts.JSONReport, "json-report", false, "also write call_table.json")
	cmd.Flags().StringVar(&opts.Database, "db", "", "rebuild a SQLite index database (relative paths land in the output directory)")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "show a progress bar on stderr")

	return cmd
}

func (o *ExtractOptions) config(cmd *cobra.Command, capturePath string) (extract.Config, error) {
	if !o.UseRange && (cmd.Flags().Changed("start") || cmd.Flags().Changed("end")) {
		return extract.Config{}, NewExitError(ExitCommandError, "--start and --end require --range")
	}
	if o.UseRange && o.Start > o.End {
		return extract.Config{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid range: start %d is after end %d", o.Start, o.End))
	}
	policy, err := index.ParseStageConflict(o.StageConflict)
	if err != nil {
		return extract.Config{}, WrapExitError(ExitCommandError, "invalid --stage-conflict", err)
	}

	cfg := extract.Config{
		CapturePath:   capturePath,
		OutDir:        o.OutDir,
		Range:         capture.Range{Enabled: o.UseRange, Start: capture.EventID(o.Start), End: capture.EventID(o.End)},
		Ext:           o.Ext,
		StageConflict: policy,
		JSONReport:    o.JSONReport,
		IndexDB:       o.Database,
	}
	if o.Progress {
		cfg.Progress = cmd.ErrOrStderr()
	}
	return cfg, nil
}

func runExtract(opts *ExtractOptions, capturePath string, cmd *cobra.Command) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())
	f := opts.formatter(cmd)

	cfg, err := opts.config(cmd, capturePath)
	if err != nil {
		return f.Fail(err)
	}

	f.VerboseLog("Loading capture %s", capturePath)
	res, err := extract.Run(cmd.Context(), cfg)
	if err != nil {
		return f.Fail(runExitError(err))
	}

	summary := ExtractSummary{
		Source:     res.Source,
		API:        string(res.API),
		Range:      cfg.Range.String(),
		OutDir:     res.OutDir,
		Stages:     stageNames(res.Stages),
		Events:     res.Events,
		Selected:   res.Selected,
		Shaders:    len(res.Records),
		Files:      len(res.Files),
		Bytes:      res.Bytes,
		Report:     res.ReportPath,
		JSONReport: res.JSONReportPath,
		IndexDB:    res.IndexDBPath,
		RunID:      res.RunID,
	}
	if f.JSON() {
		return f.Success(summary)
	}
	return outputExtractText(f, summary)
}

func outputExtractText(f *OutputFormatter, s ExtractSummary) error {
	w := f.Writer
	fmt.Fprintf(w, "Source:  %s (%s)\n", s.Source, s.API)
	fmt.Fprintf(w, "Range:   %s\n", s.Range)
	fmt.Fprintf(w, "Events:  %d selected of %d\n", s.Selected, s.Events)
	fmt.Fprintf(w, "Output:  %s\n", s.OutDir)
	fmt.Fprintf(w, "Report:  %s\n", s.Report)
	if s.JSONReport != "" {
		fmt.Fprintf(w, "JSON:    %s\n", s.JSONReport)
	}
	if s.IndexDB != "" {
		fmt.Fprintf(w, "Index:   %s (run %s)\n", s.IndexDB, s.RunID)
	}
	fmt.Fprintln(w)

	if s.Shaders == 0 {
		f.Warn("No shaders bound in %d selected events", s.Selected)
		return nil
	}
	f.Done("%d unique shaders saved (%d bytes)", s.Shaders, s.Bytes)
	return nil
}

func stageNames(stages []capture.Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.String()
	}
	return names
}
