package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shaderidx/internal/capture"
	"github.com/roach88/shaderidx/internal/index"
	"github.com/roach88/shaderidx/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Event    uint32
	Shader   string
}

// QueryShader is one call table entry in query output.
type QueryShader struct {
	ID     string   `json:"id"`
	Stage  string   `json:"stage"`
	File   string   `json:"file"`
	Events []uint32 `json:"events"`
}

// QueryResult holds the matches of one query.
type QueryResult struct {
	Source  string        `json:"source"`
	RunID   string        `json:"run_id"`
	Query   string        `json:"query"`
	Shaders []QueryShader `json:"shaders"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Look up shaders or events in an index database",
		Long: `Query the SQLite index database written by "extract --db".

With --event, list the shaders bound by that event. With --shader, list the
events that use that shader, per stage it was bound at.

Exit codes:
  0 - Query completed (possibly with no matches)
  2 - Command error (database not found, bad flags, etc.)

Examples:
  shaderidx query --db out/index.db --event 42
  shaderidx query --db out/index.db --shader 1204 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite index database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Uint32Var(&opts.Event, "event", 0, "list the shaders bound by this event")
	cmd.Flags().StringVar(&opts.Shader, "shader", "", "list the events that use this shader")
	cmd.MarkFlagsMutuallyExclusive("event", "shader")
	cmd.MarkFlagsOneRequired("event", "shader")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := opts.formatter(cmd)

	// store.Open would create a missing file.
	if _, err := os.Stat(opts.Database); err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "index database not found", err))
	}

	f.VerboseLog("Opening index %s", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to open index database", err))
	}
	defer st.Close()

	run, err := st.LatestRun(ctx)
	if errors.Is(err, store.ErrNoRun) {
		return f.Fail(WrapExitError(ExitCommandError, "index database is empty", err))
	}
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read run", err))
	}

	var (
		records []index.Record
		query   string
	)
	if cmd.Flags().Changed("event") {
		query = fmt.Sprintf("event %d", opts.Event)
		records, err = st.ShadersForEvent(ctx, capture.EventID(opts.Event))
	} else {
		id := capture.ParseShaderID(opts.Shader)
		query = fmt.Sprintf("shader %s", id)
		records, err = st.EventsForShader(ctx, id)
	}
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "query failed", err))
	}

	result := QueryResult{
		Source:  run.Source,
		RunID:   run.ID,
		Query:   query,
		Shaders: make([]QueryShader, 0, len(records)),
	}
	for _, r := range records {
		qs := QueryShader{ID: string(r.ID), Stage: r.Stage.String(), File: r.File, Events: make([]uint32, len(r.Events))}
		for i, ev := range r.Events {
			qs.Events[i] = uint32(ev)
		}
		result.Shaders = append(result.Shaders, qs)
	}

	if f.JSON() {
		return f.Success(result)
	}
	return outputQueryText(f, result)
}

func outputQueryText(f *OutputFormatter, result QueryResult) error {
	w := f.Writer
	fmt.Fprintf(w, "Source: %s\n", result.Source)
	fmt.Fprintf(w, "Query:  %s\n\n", result.Query)

	if len(result.Shaders) == 0 {
		f.Warn("No matches")
		return nil
	}
	for _, s := range result.Shaders {
		fmt.Fprintf(w, "Shader ID: %s (%s)\n", s.ID, s.Stage)
		fmt.Fprintf(w, "  File:   %s\n", s.File)
		fmt.Fprintf(w, "  Events: %s\n", joinUint32(s.Events))
	}
	return nil
}

func joinUint32(vals []uint32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, ", ")
}
