// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ptask/internal/httputil"
	"github.com/pdiddy/ptask/internal/poll"
	"github.com/pdiddy/ptask/internal/render"
	"github.com/pdiddy/ptask/internal/runlog"
	"github.com/pdiddy/ptask/internal/schema"
	"github.com/pdiddy/ptask/internal/taskapi"
	"github.com/pdiddy/ptask/internal/taskfile"
	"github.com/pdiddy/ptask/pkg/types"
)

// Task modes as recorded in the run history.
const (
	modeQuery  = "query"
	modeEnrich = "enrich"
	modeReport = "report"
)

var errNoInput = errors.New("a query, --enrich, or --report is required")

// registerTaskFlags adds the submission flags shared by the root command.
func registerTaskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("processor", "p", "core", "processor tier: base (fast), core (standard), or ultra (deep research)")
	cmd.Flags().StringP("enrich", "e", "", "enrichment mode: key=value input pairs (e.g. 'company_name=Stripe,website=stripe.com')")
	cmd.Flags().StringP("output", "o", "", "output fields for enrichment (e.g. 'founding_year,employee_count')")
	cmd.Flags().BoolP("report", "r", false, "generate a markdown report with citations")
	cmd.Flags().String("include-domains", "", "comma-separated domains to include as sources")
	cmd.Flags().String("exclude-domains", "", "comma-separated domains to exclude as sources")
	cmd.Flags().String("browseruse-key", "", "browser-use.com API key for authenticated page access")
	cmd.Flags().String("task-file", "", "load the task definition from a YAML file")
	cmd.Flags().Bool("no-wait", false, "submit without waiting and print the run id")
}

// registerRunFlags adds the polling and rendering flags shared by the root
// command and watch.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("timeout", "t", 300, "polling timeout in seconds")
	cmd.Flags().Duration("poll-interval", 2*time.Second, "delay between status checks")
	cmd.Flags().BoolP("json", "j", false, "output the raw JSON result document")
	cmd.Flags().String("save", "", "write the completed result to a YAML or JSON file")
}

// submission is a fully resolved task: what to submit and how to label it.
type submission struct {
	mode      string
	input     any
	inputText string // short summary for the run history
	processor types.Processor
	spec      *types.TaskSpec
	include   []string
	exclude   []string
}

// resolveSubmission combines the positional query, the mode flags, and an
// optional task file into one submission. Explicit flags win over task file
// values; the task file wins over config defaults. Mode precedence is
// enrichment, then report, then plain query.
func resolveSubmission(cmd *cobra.Command, args []string) (*submission, error) {
	flags := cmd.Flags()

	var file *taskfile.TaskFile
	if path, _ := flags.GetString("task-file"); path != "" {
		var err error
		if file, err = taskfile.Load(path); err != nil {
			return nil, err
		}
	}

	query := strings.Join(args, " ")
	var inputData map[string]string
	var inputKeys []string
	var outputFields []string
	processorName := settingString(cmd, "processor", "processor")
	report, _ := flags.GetBool("report")

	includeList, _ := flags.GetString("include-domains")
	excludeList, _ := flags.GetString("exclude-domains")
	include := schema.Fields(includeList)
	exclude := schema.Fields(excludeList)

	if file != nil {
		fileQuery, fileData, err := file.InputData()
		if err != nil {
			return nil, err
		}
		if query == "" {
			query = fileQuery
		}
		if fileData != nil {
			inputData = fileData
			inputKeys = make([]string, 0, len(fileData))
			for key := range fileData {
				inputKeys = append(inputKeys, key)
			}
			sort.Strings(inputKeys)
		}
		outputFields = file.OutputFields
		if !flags.Changed("processor") && file.Processor != "" {
			processorName = file.Processor
		}
		if len(include) == 0 {
			include = file.IncludeDomains
		}
		if len(exclude) == 0 {
			exclude = file.ExcludeDomains
		}
	}

	if pairs, _ := flags.GetString("enrich"); pairs != "" {
		inputData, inputKeys = schema.ParsePairs(pairs)
	}
	if list, _ := flags.GetString("output"); list != "" {
		outputFields = schema.Fields(list)
	}

	processor, err := types.ParseProcessor(processorName)
	if err != nil {
		return nil, err
	}

	switch {
	case inputData != nil:
		if len(outputFields) == 0 {
			return nil, errors.New("--enrich requires --output fields")
		}
		return &submission{
			mode:      modeEnrich,
			input:     inputData,
			inputText: pairsSummary(inputData, inputKeys),
			processor: processor,
			spec:      schema.Enrichment(inputKeys, outputFields),
			include:   include,
			exclude:   exclude,
		}, nil
	case report:
		if query == "" {
			return nil, errors.New("--report requires a query")
		}
		// Reports need deep processing.
		return &submission{
			mode:      modeReport,
			input:     query,
			inputText: query,
			processor: types.ProcessorUltra,
			spec:      schema.Text(),
			include:   include,
			exclude:   exclude,
		}, nil
	case query != "":
		return &submission{
			mode:      modeQuery,
			input:     query,
			inputText: query,
			processor: processor,
			include:   include,
			exclude:   exclude,
		}, nil
	default:
		return nil, errNoInput
	}
}

func pairsSummary(data map[string]string, keys []string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+data[key])
	}
	return strings.Join(parts, ",")
}

// runTask is the root command: resolve the submission, create the run, and
// either detach or poll it to completion.
func runTask(cmd *cobra.Command, args []string) error {
	sub, err := resolveSubmission(cmd, args)
	if errors.Is(err, errNoInput) {
		_ = cmd.Help()
		return err
	}
	if err != nil {
		return err
	}

	apiKey, err := resolveAPIKey()
	if err != nil {
		return err
	}

	client := taskapi.New(types.ClientConfig{
		HTTPConfig: types.HTTPConfig{Timeout: viper.GetDuration("http_timeout")},
		APIKey:     apiKey,
	})

	req := taskapi.BuildRequest(taskapi.RunParams{
		Input:          sub.input,
		Processor:      sub.processor,
		TaskSpec:       sub.spec,
		IncludeDomains: sub.include,
		ExcludeDomains: sub.exclude,
		BrowserUseKey:  resolveBrowserUseKey(cmd),
	})

	ctx := cmd.Context()
	run, err := client.CreateRun(ctx, req)
	if err != nil {
		return err
	}
	log.Debug().Str("run_id", run.RunID).Str("processor", string(sub.processor)).Msg("run created")

	history := openHistory()
	if history != nil {
		defer history.Close()
	}
	status := string(run.Status)
	if status == "" {
		status = string(types.StatusQueued)
	}
	recordRun(ctx, history, runlog.Record{
		RunID:     run.RunID,
		Mode:      sub.mode,
		Processor: string(sub.processor),
		Input:     httputil.Snippet(sub.inputText, 200),
		Status:    status,
	})

	if noWait, _ := cmd.Flags().GetBool("no-wait"); noWait {
		fmt.Printf("Task created: %s\n", run.RunID)
		return nil
	}

	return finishRun(ctx, cmd, client, history, run.RunID, sub.mode, sub.inputText)
}

// finishRun polls a run to completion, renders the result to stdout, and
// records the outcome. Shared by the root command and watch.
func finishRun(ctx context.Context, cmd *cobra.Command, client *taskapi.Client, history *runlog.Store, runID, mode, inputText string) error {
	fmt.Fprintf(os.Stderr, "Running task %s...\n", runID)

	cfg := types.PollConfig{
		Interval: settingDuration(cmd, "poll-interval", "poll_interval"),
		Timeout:  time.Duration(settingInt(cmd, "timeout", "timeout")) * time.Second,
	}
	res, err := poll.Wait(ctx, client, runID, cfg, os.Stderr)
	if err != nil {
		var failed *poll.RunFailedError
		if errors.As(err, &failed) {
			updateRun(ctx, history, runID, string(types.StatusFailed), "")
		}
		return err
	}

	document, renderErr := render.FormatJSON(res)
	if renderErr == nil {
		updateRun(ctx, history, runID, string(res.Status), document)
	} else {
		log.Warn().Err(renderErr).Msg("could not encode result document")
		updateRun(ctx, history, runID, string(res.Status), "")
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		if renderErr != nil {
			return renderErr
		}
		fmt.Println(document)
	} else {
		fmt.Println(render.FormatHuman(res))
	}

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		rf := taskfile.ResultFile{
			RunID:     res.RunID,
			Mode:      mode,
			Processor: res.Processor,
			Input:     inputText,
			Result:    render.BuildDocument(res),
		}
		if err := taskfile.WriteResult(save, rf); err != nil {
			return err
		}
		log.Info().Str("file", save).Msg("result saved")
	}
	return nil
}

// resolveAPIKey resolves the Parallel API key: environment or config first,
// then the .secrets/ directory. There is no built-in default; a missing key
// is an error naming the expected sources.
func resolveAPIKey() (string, error) {
	if key := viper.GetString("api_key"); key != "" {
		return key, nil
	}
	if key := loadedSecrets["parallel-api-key"]; key != "" {
		return key, nil
	}
	return "", errors.New("parallel API key not set: export PARALLEL_API_KEY, set api_key in the config file, or create .secrets/parallel-api-key")
}

// resolveBrowserUseKey resolves the optional browser-use.com key: flag,
// then environment or config, then the .secrets/ directory. An empty result
// disables authenticated page access.
func resolveBrowserUseKey(cmd *cobra.Command) string {
	if cmd.Flags().Changed("browseruse-key") {
		key, _ := cmd.Flags().GetString("browseruse-key")
		return key
	}
	if key := viper.GetString("browseruse_key"); key != "" {
		return key
	}
	return loadedSecrets["browseruse-api-key"]
}

// openHistory opens the local run history. History is best-effort: when the
// store cannot be opened the submission proceeds without it.
func openHistory() *runlog.Store {
	store, err := runlog.Open(types.RunLogConfig{Dir: viper.GetString("runlog_dir")})
	if err != nil {
		log.Warn().Err(err).Msg("run history unavailable")
		return nil
	}
	return store
}

func recordRun(ctx context.Context, history *runlog.Store, rec runlog.Record) {
	if history == nil {
		return
	}
	if err := history.Put(ctx, rec); err != nil {
		log.Warn().Err(err).Str("run_id", rec.RunID).Msg("could not record run")
	}
}

func updateRun(ctx context.Context, history *runlog.Store, runID, status, result string) {
	if history == nil {
		return
	}
	if err := history.Update(ctx, runID, status, result); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("could not update run history")
	}
}
