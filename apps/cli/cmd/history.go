package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/hitassert/packages/core/config"
	"github.com/abdul-hamid-achik/hitassert/packages/db"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyLimitFlag   int
	historyDetailsFlag bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `Show the most recent runs recorded with run --history.

The database comes from --history or the history key of the config file.

Examples:
  hitassert history --history sqlite:.hitassert/history.db
  hitassert history --limit 5 --details`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyFlag, "history", getEnvString("HITASSERT_HISTORY", ""), "History database, e.g. sqlite:history.db (env: HITASSERT_HISTORY)")
	historyCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITASSERT_CONFIG", ""), "Path to config file (env: HITASSERT_CONFIG)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 10, "Number of runs to show")
	historyCmd.Flags().BoolVar(&historyDetailsFlag, "details", false, "Show each request of every run")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	source := historyFlag
	if source == "" {
		cfg, err := config.LoadConfig(configFlag)
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		source = cfg.History
	}
	if source == "" {
		return exitWith(ExitUsageError, fmt.Errorf("no history database: set --history or history in the config file"))
	}

	client, err := db.Open(source)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	defer client.Close()

	runs, err := client.RecentRuns(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	for _, run := range runs {
		status := green("PASS")
		if !run.Success() {
			status = red("FAIL")
		}
		fmt.Fprintf(out, "%s  %s  %s  passed %d, failed %d, errored %d, skipped %d  (%dms, p95 %v)\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), status, run.File,
			run.Passed, run.Failed, run.Errored, run.Skipped,
			run.Duration.Milliseconds(), run.P95)

		if !historyDetailsFlag {
			continue
		}
		requests, err := client.RunRequests(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
		for _, req := range requests {
			fmt.Fprintf(out, "    %-8s %s", req.Outcome, req.Name)
			if req.Status != 0 {
				fmt.Fprintf(out, " [%d]", req.Status)
			}
			if req.Message != "" {
				fmt.Fprintf(out, " %s", req.Message)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
