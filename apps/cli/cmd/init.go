package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitassert/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a config file and an example suite",
	Long: `Initialize a project in the given directory (default: current).

This creates:
  - hitassert.yaml       - Configuration file with environments
  - example.hit.yaml     - Example suite for the built-in mock fixtures

Try it with:
  hitassert mock --fixtures &
  hitassert run example.hit.yaml

Examples:
  hitassert init
  hitassert init ./api-tests --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSuite = `name: example
baseUrl: "{{baseUrl}}"
variables:
  firstName: John
  lastName: Doe
requests:
  - name: hello
    path: /hello
    tags: [smoke]
    expect:
      status: 200
      body:
        hello: Hello Scalatra

  - name: lotto
    path: /lotto
    tags: [smoke]
    capture:
      lottoId: body lotto.lottoId
    expect:
      status: 200
      headers:
        Content-Type: {contains: application/json}
      body:
        lotto.lottoId: 5
        lotto.winners.winnerId: {hasItems: [23, 54]}
        lotto.winning-numbers: {size: 7}

  - name: greet
    path: /greet
    depends: lotto
    params:
      firstName: "{{firstName}}"
      lastName: "{{lastName}}"
    expect:
      status: {gte: 200, lt: 300}
      body:
        greeting: {startsWith: Greetings, endsWith: Doe}
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "hitassert.yaml")
	exampleFile := filepath.Join(dir, "example.hit.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return exitWith(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Headers = map[string]string{"User-Agent": "hitassert/" + version}
	cfg.Environments = map[string]map[string]any{
		"dev":     {"baseUrl": "http://localhost:3000"},
		"staging": {"baseUrl": "https://staging.api.example.com"},
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleSuite), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nProject initialized.\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitassert mock --fixtures' and then 'hitassert run %s'.\n", exampleFile)
	return nil
}
