// Package cli implements the stubmatch command line.
//
// The commands load a mapping file into a match engine with the stock
// extensions registered, then either report on the loaded mappings
// (validate) or evaluate one request against them (match). Nothing is
// served; the CLI is a dry run of the matching core.
//
//	stubmatch validate --config stubs.yaml
//	stubmatch match --config stubs.yaml --method POST --url /orders -H 'Content-Type: application/json' --body '{"amount": 5}'
//	stubmatch version
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitNoMatch = 2
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	logFormat string
	logFile   string
	stderr    io.Writer
}

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{stderr: stderr}

	root := &cobra.Command{
		Use:   "stubmatch",
		Short: "stubmatch evaluates HTTP requests against stub mappings",
		Long: `stubmatch loads stub mappings from a YAML file and decides which one answers a request.

Mappings are walked in priority order (highest first, then file order). Named
matchers are resolved through the extension registry, which holds the stock
extensions: path-contains-param, header-present, expression and json-schema.`,
		SilenceUsage:  true,
		SilenceErrors: true, // Execute reports errors
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: file setting, else warn)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (default: file setting, else text)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also append logs to this file as JSON")

	root.AddCommand(
		newValidateCommand(opts),
		newMatchCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line with os.Args and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if errors.Is(err, ErrNoMatch) {
			return ExitNoMatch
		}
		fmt.Fprintln(stderr, "Error:", err)
		return ExitError
	}
	return ExitOK
}
