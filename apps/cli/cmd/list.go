package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitassert/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List the requests in suite files",
	Long: `List the requests defined in suite files with their expectations.

Examples:
  hitassert list lotto.hit.yaml
  hitassert list ./suites/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitWith(ExitUsageError, errNoFiles)
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(out, "\n%s:\n", file)
		for _, req := range f.Requests {
			fmt.Fprintf(out, "  - %s (%s %s)\n", req.Name, req.Method, req.URL)
			if len(req.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %s\n", strings.Join(req.Tags, ", "))
			}
			if len(req.Metadata.Depends) > 0 {
				fmt.Fprintf(out, "    depends: %s\n", strings.Join(req.Metadata.Depends, ", "))
			}
			for _, a := range req.Assertions {
				fmt.Fprintf(out, "    expect %s\n", a.Subject())
			}
		}
	}

	return nil
}
