package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/shaderidx/internal/capture"
)

// APIInfo describes what extract does for one graphics API.
type APIInfo struct {
	API    string   `json:"api"`
	Ext    string   `json:"ext"`
	Stages []string `json:"stages"`
}

// NewStagesCommand creates the stages command.
func NewStagesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages [api]",
		Short: "List the shader stages queried per graphics API",
		Long: `List the pipeline stages extract queries for a graphics API, in query
order, with the file extension used for its shaders. Without an argument,
every known API is listed.

Examples:
  shaderidx stages
  shaderidx stages vulkan --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStages(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runStages(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	apis := capture.APIs()
	if len(args) == 1 {
		api, err := capture.ParseAPI(args[0])
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "invalid api", err))
		}
		apis = []capture.API{api}
	}

	infos := make([]APIInfo, len(apis))
	for i, api := range apis {
		infos[i] = APIInfo{API: string(api), Ext: api.Ext(), Stages: stageNames(api.Stages())}
	}

	if f.JSON() {
		return f.Success(infos)
	}
	for _, info := range infos {
		fmt.Fprintf(f.Writer, "%s (.%s): %s\n", info.API, info.Ext, strings.Join(info.Stages, ", "))
	}
	return nil
}
