package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load a mapping file and report problems",
		Long: `Load a mapping file, its includes and every mapping into a match engine.

This command checks:
  - YAML syntax and unknown fields
  - matcher patterns (regular expressions, JSON, JSON schemas, XPath)
  - response bodies, including gzipped ones
  - extension parameters, for extensions that validate them
  - references to unknown extensions when strictExtensionReferences is set`,
		Example: `  # Validate a mapping file
  stubmatch validate --config stubs.yaml

  # List the mappings in match order
  stubmatch validate --config stubs.yaml --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(configPath, false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			mappings := s.engine.StubMappings()
			fmt.Fprintf(out, "OK: %d mappings from %d files, %d extensions\n",
				len(mappings), len(s.config.Sources), s.engine.Registry().Len())
			if verbose {
				for _, m := range mappings {
					fmt.Fprintf(out, "  %s\n", m)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "f", "", "Mapping file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List the loaded mappings in match order")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
