package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ptask/internal/runlog"
	"github.com/pdiddy/ptask/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recently submitted task runs",
	Long: `Runs lists the local history of submitted tasks, newest first: run id,
mode, processor, last known status, and an input summary. Detached runs
(submitted with --no-wait) can be resumed with "ptask watch RUN_ID".`,
	RunE: runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	store, err := runlog.Open(types.RunLogConfig{Dir: viper.GetString("runlog_dir")})
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-30s  %-7s  %-9s  %-12s  %-19s  %s\n",
		"Run ID", "Mode", "Processor", "Status", "Created", "Input")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, r := range records {
		input := r.Input
		if runes := []rune(input); len(runes) > 30 {
			input = string(runes[:27]) + "..."
		}
		fmt.Fprintf(os.Stdout, "%-30s  %-7s  %-9s  %-12s  %-19s  %s\n",
			r.RunID, r.Mode, r.Processor, r.Status,
			r.CreatedAt.Format("2006-01-02 15:04:05"), input)
	}

	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(records))
	return nil
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.Flags().Bool("json", false, "output the history as JSON")

	rootCmd.AddCommand(runsCmd)
}
