package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ptask/internal/taskapi"
	"github.com/pdiddy/ptask/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch RUN_ID",
	Short: "Resume polling a previously submitted run",
	Long: `Watch re-enters the poll loop for a run submitted earlier, for example
with --no-wait, renders the result when it completes, and updates the
local history.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	runID := args[0]

	apiKey, err := resolveAPIKey()
	if err != nil {
		return err
	}
	client := taskapi.New(types.ClientConfig{
		HTTPConfig: types.HTTPConfig{Timeout: viper.GetDuration("http_timeout")},
		APIKey:     apiKey,
	})

	history := openHistory()
	if history != nil {
		defer history.Close()
	}

	// Carry the original submission labels into the saved result when the
	// run is in the local history.
	var mode, inputText string
	if history != nil {
		if rec, err := history.Get(cmd.Context(), runID); err == nil && rec != nil {
			mode, inputText = rec.Mode, rec.Input
		}
	}

	return finishRun(cmd.Context(), cmd, client, history, runID, mode, inputText)
}

func init() {
	registerRunFlags(watchCmd)

	rootCmd.AddCommand(watchCmd)
}
