// Command dyadpanel builds the politically relevant dyad-year panel and
// its summaries and models.
//
// Usage:
//
//	dyadpanel build     --input data/input --output data/output
//	dyadpanel summarize --start-year 1973 --end-year 2014
//	dyadpanel fit
//	dyadpanel run       --config dyadpanel.yaml
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "dyadpanel/internal/errors"
	"dyadpanel/internal/operations"
	"dyadpanel/pkg/contracts"
)

// ExitCode is the process exit status
type ExitCode int

const (
	exitCodeSuccess   ExitCode = 0
	exitCodeError     ExitCode = 1
	exitCodeIntegrity ExitCode = 2
)

func main() {
	os.Exit(int(Run(os.Args[1:], os.Stdout, os.Stderr)))
}

// Run executes the command line and maps the outcome to an exit code:
// 2 for data integrity failures, 1 for anything else.
func Run(args []string, stdout, stderr io.Writer) ExitCode {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitCodeSuccess
	}
	root.PrintErrln("Error:", err)
	return exitCode(err)
}

func exitCode(err error) ExitCode {
	switch {
	case err == nil:
		return exitCodeSuccess
	case apperrors.IsIntegrity(err):
		return exitCodeIntegrity
	default:
		return exitCodeError
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "dyadpanel",
		Short:         "Build the politically relevant dyad-year panel",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	opts.bind(root.PersistentFlags())

	root.AddCommand(
		newPlanCmd(opts, operations.PlanBuild, "Load the input tables, assemble the panel and write it with its diagnostics"),
		newPlanCmd(opts, operations.PlanSummarize, "Build the panel and write the descriptive summary tables"),
		newPlanCmd(opts, operations.PlanFit, "Build the panel and fit the ordered logit models"),
		newPlanCmd(opts, operations.PlanRun, "Build, summarize and fit in one run"),
	)
	return root
}

func newPlanCmd(opts *options, plan operations.Plan, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(plan),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, plan)
		},
	}
}
