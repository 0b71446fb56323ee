package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitassert/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Check suite files without sending requests",
	Long: `Parse suite files and check them without sending any request: request
names are unique, dependencies exist, paths parse and every expectation
compiles to a known matcher.

Examples:
  hitassert validate lotto.hit.yaml
  hitassert validate ./suites/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitWith(ExitUsageError, errNoFiles)
	}

	hasErrors := false
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		if errs := parser.Validate(f); len(errs) > 0 {
			for _, verr := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, verr)
			}
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if hasErrors {
		return exitWith(ExitParseError, fmt.Errorf("validation failed"))
	}
	return nil
}
