package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/mock"
	"github.com/spf13/cobra"
)

var (
	mockAddrFlag     string
	mockDelayFlag    string
	mockFixturesFlag bool
)

var mockCmd = &cobra.Command{
	Use:   "mock [routes.yaml]",
	Short: "Start a mock server from a route file",
	Long: `Start an HTTP server that answers with canned responses.

Routes are read from a YAML file:

  routes:
    - path: /users/{id}
      status: 200
      headers:
        Content-Type: application/json
      body: '{"id": "{{path.id}}", "request": "{{uuid()}}"}'
      delay: 50ms

With --fixtures the server also serves /hello, /lotto and /greet.

Examples:
  hitassert mock --fixtures
  hitassert mock routes.yaml --addr :3000
  hitassert mock routes.yaml --delay 100ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().StringVarP(&mockAddrFlag, "addr", "a", getEnvString("HITASSERT_MOCK_ADDR", ":3000"), "Listen address (env: HITASSERT_MOCK_ADDR)")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0s", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().BoolVar(&mockFixturesFlag, "fixtures", false, "Serve the built-in /hello, /lotto and /greet routes")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	delay, err := time.ParseDuration(mockDelayFlag)
	if err != nil {
		return exitWith(ExitUsageError, fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err))
	}

	var routes []*mock.Route
	if mockFixturesFlag {
		routes = append(routes, mock.Fixtures()...)
	}
	if len(args) == 1 {
		loaded, err := mock.LoadRoutes(args[0])
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		routes = append(routes, loaded...)
	}
	if len(routes) == 0 {
		return exitWith(ExitUsageError, fmt.Errorf("no routes: pass a route file or --fixtures"))
	}

	server := mock.NewServer(routes,
		mock.WithAddr(mockAddrFlag),
		mock.WithDelay(delay),
		mock.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Mock server listening with %d routes (press Ctrl+C to stop)\n", len(routes))
	return server.Run(ctx)
}
