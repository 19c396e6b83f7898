package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ptask/internal/render"
	"github.com/pdiddy/ptask/internal/taskfile"
)

var showCmd = &cobra.Command{
	Use:   "show FILE",
	Short: "Render a result file saved with --save",
	Long: `Show re-renders a result document saved by a previous run, without
contacting the API. The file may be YAML or JSON, as written by --save.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	out, err := renderResultFile(args[0], jsonOut)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func renderResultFile(path string, jsonOut bool) (string, error) {
	saved, err := taskfile.ReadResult(path)
	if err != nil {
		return "", err
	}
	res := saved.Result.RunResult()
	if jsonOut {
		return render.FormatJSON(res)
	}
	return render.FormatHuman(res), nil
}

func init() {
	showCmd.Flags().Bool("json", false, "output the raw JSON result document")

	rootCmd.AddCommand(showCmd)
}
