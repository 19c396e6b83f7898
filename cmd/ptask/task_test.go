// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ptask/pkg/types"
)

// newTaskCmd builds a detached command with the submission flags parsed,
// so resolveSubmission can be exercised without running the CLI.
func newTaskCmd(t *testing.T, cmdline ...string) (*cobra.Command, []string) {
	t.Helper()
	cmd := &cobra.Command{Use: "ptask", Args: cobra.ArbitraryArgs}
	registerTaskFlags(cmd)
	registerRunFlags(cmd)
	if err := cmd.ParseFlags(cmdline); err != nil {
		t.Fatalf("parsing flags %v: %v", cmdline, err)
	}
	return cmd, cmd.Flags().Args()
}

func TestResolveSubmissionPlainQuery(t *testing.T) {
	cmd, args := newTaskCmd(t, "What", "was", "France's", "GDP", "in", "2023?")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.mode != modeQuery {
		t.Errorf("mode = %q", sub.mode)
	}
	if sub.input != "What was France's GDP in 2023?" {
		t.Errorf("input = %v", sub.input)
	}
	if sub.processor != types.ProcessorCore {
		t.Errorf("processor = %q, want default core", sub.processor)
	}
	if sub.spec != nil {
		t.Errorf("spec = %+v, want none for a plain query", sub.spec)
	}
}

func TestResolveSubmissionProcessorFlag(t *testing.T) {
	cmd, args := newTaskCmd(t, "-p", "base", "quick", "question")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.processor != types.ProcessorBase {
		t.Errorf("processor = %q", sub.processor)
	}
}

func TestResolveSubmissionInvalidProcessor(t *testing.T) {
	cmd, args := newTaskCmd(t, "-p", "mega", "question")

	_, err := resolveSubmission(cmd, args)
	if err == nil || !strings.Contains(err.Error(), "invalid processor") {
		t.Errorf("err = %v", err)
	}
}

func TestResolveSubmissionEnrich(t *testing.T) {
	cmd, args := newTaskCmd(t,
		"--enrich", "company_name=Stripe,website=stripe.com",
		"--output", "founding_year,funding")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.mode != modeEnrich {
		t.Errorf("mode = %q", sub.mode)
	}
	want := map[string]string{"company_name": "Stripe", "website": "stripe.com"}
	if !reflect.DeepEqual(sub.input, want) {
		t.Errorf("input = %v", sub.input)
	}
	if sub.inputText != "company_name=Stripe,website=stripe.com" {
		t.Errorf("input text = %q", sub.inputText)
	}

	if sub.spec == nil || sub.spec.InputSchema == nil || sub.spec.OutputSchema == nil {
		t.Fatalf("spec = %+v", sub.spec)
	}
	if got := sub.spec.InputSchema.JSONSchema.Required; !reflect.DeepEqual(got, []string{"company_name", "website"}) {
		t.Errorf("input required = %v", got)
	}
	if got := sub.spec.OutputSchema.JSONSchema.Required; !reflect.DeepEqual(got, []string{"founding_year", "funding"}) {
		t.Errorf("output required = %v", got)
	}
}

func TestResolveSubmissionEnrichRequiresOutput(t *testing.T) {
	cmd, args := newTaskCmd(t, "--enrich", "company_name=Stripe")

	_, err := resolveSubmission(cmd, args)
	if err == nil || err.Error() != "--enrich requires --output fields" {
		t.Errorf("err = %v", err)
	}
}

func TestResolveSubmissionReportForcesUltra(t *testing.T) {
	cmd, args := newTaskCmd(t, "--report", "-p", "base", "Market", "analysis", "of", "HVAC", "industry")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.mode != modeReport {
		t.Errorf("mode = %q", sub.mode)
	}
	if sub.processor != types.ProcessorUltra {
		t.Errorf("processor = %q, want ultra regardless of -p", sub.processor)
	}
	if sub.spec == nil || sub.spec.OutputSchema == nil || sub.spec.OutputSchema.Type != "text" {
		t.Errorf("spec = %+v, want text output", sub.spec)
	}
	if sub.spec.InputSchema != nil {
		t.Errorf("input schema = %+v, want none", sub.spec.InputSchema)
	}
	if sub.input != "Market analysis of HVAC industry" {
		t.Errorf("input = %v", sub.input)
	}
}

func TestResolveSubmissionReportRequiresQuery(t *testing.T) {
	cmd, args := newTaskCmd(t, "--report")

	_, err := resolveSubmission(cmd, args)
	if err == nil || err.Error() != "--report requires a query" {
		t.Errorf("err = %v", err)
	}
}

func TestResolveSubmissionNoInput(t *testing.T) {
	cmd, args := newTaskCmd(t)

	_, err := resolveSubmission(cmd, args)
	if !errors.Is(err, errNoInput) {
		t.Errorf("err = %v, want errNoInput", err)
	}
}

func TestResolveSubmissionEnrichPrecedesReport(t *testing.T) {
	cmd, args := newTaskCmd(t,
		"--report",
		"--enrich", "company_name=Stripe",
		"--output", "founding_year",
		"some", "query")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.mode != modeEnrich {
		t.Errorf("mode = %q, want enrich to take precedence", sub.mode)
	}
}

func TestResolveSubmissionDomains(t *testing.T) {
	cmd, args := newTaskCmd(t,
		"--include-domains", "sec.gov, edgar.gov",
		"--exclude-domains", "reddit.com",
		"filings", "question")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if !reflect.DeepEqual(sub.include, []string{"sec.gov", "edgar.gov"}) {
		t.Errorf("include = %v", sub.include)
	}
	if !reflect.DeepEqual(sub.exclude, []string{"reddit.com"}) {
		t.Errorf("exclude = %v", sub.exclude)
	}
}

func writeTempTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveSubmissionTaskFile(t *testing.T) {
	path := writeTempTaskFile(t, `
input:
  company_name: Stripe
output_fields: [founding_year]
processor: ultra
include_domains: [stripe.com]
`)
	cmd, args := newTaskCmd(t, "--task-file", path)

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.mode != modeEnrich {
		t.Errorf("mode = %q", sub.mode)
	}
	if sub.processor != types.ProcessorUltra {
		t.Errorf("processor = %q, want the task file value", sub.processor)
	}
	if !reflect.DeepEqual(sub.input, map[string]string{"company_name": "Stripe"}) {
		t.Errorf("input = %v", sub.input)
	}
	if got := sub.spec.OutputSchema.JSONSchema.Required; !reflect.DeepEqual(got, []string{"founding_year"}) {
		t.Errorf("output required = %v", got)
	}
	if !reflect.DeepEqual(sub.include, []string{"stripe.com"}) {
		t.Errorf("include = %v", sub.include)
	}
}

func TestResolveSubmissionFlagsOverrideTaskFile(t *testing.T) {
	path := writeTempTaskFile(t, `
input: original query from file
processor: ultra
`)
	cmd, args := newTaskCmd(t, "--task-file", path, "-p", "base", "flag", "query", "wins")

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.input != "flag query wins" {
		t.Errorf("input = %v", sub.input)
	}
	if sub.processor != types.ProcessorBase {
		t.Errorf("processor = %q, want the explicit flag value", sub.processor)
	}
}

func TestResolveSubmissionTaskFileQuery(t *testing.T) {
	path := writeTempTaskFile(t, `input: query from the file`)
	cmd, args := newTaskCmd(t, "--task-file", path)

	sub, err := resolveSubmission(cmd, args)
	if err != nil {
		t.Fatalf("resolveSubmission: %v", err)
	}
	if sub.mode != modeQuery || sub.input != "query from the file" {
		t.Errorf("submission = %+v", sub)
	}
}

func TestResolveAPIKey(t *testing.T) {
	restore := loadedSecrets
	t.Cleanup(func() {
		loadedSecrets = restore
		viper.Set("api_key", "")
	})

	loadedSecrets = nil
	viper.Set("api_key", "")
	if _, err := resolveAPIKey(); err == nil || !strings.Contains(err.Error(), "PARALLEL_API_KEY") {
		t.Errorf("err = %v, want a message naming the expected sources", err)
	}

	loadedSecrets = map[string]string{"parallel-api-key": "from-secrets"}
	key, err := resolveAPIKey()
	if err != nil || key != "from-secrets" {
		t.Errorf("key = %q, err = %v", key, err)
	}

	viper.Set("api_key", "from-config")
	key, err = resolveAPIKey()
	if err != nil || key != "from-config" {
		t.Errorf("key = %q, err = %v, want config to win over secrets", key, err)
	}
}

func TestResolveBrowserUseKey(t *testing.T) {
	restore := loadedSecrets
	t.Cleanup(func() {
		loadedSecrets = restore
		viper.Set("browseruse_key", "")
	})

	loadedSecrets = map[string]string{"browseruse-api-key": "from-secrets"}
	viper.Set("browseruse_key", "")

	cmd, _ := newTaskCmd(t)
	if got := resolveBrowserUseKey(cmd); got != "from-secrets" {
		t.Errorf("key = %q, want secrets fallback", got)
	}

	viper.Set("browseruse_key", "from-config")
	if got := resolveBrowserUseKey(cmd); got != "from-config" {
		t.Errorf("key = %q, want config over secrets", got)
	}

	cmd, _ = newTaskCmd(t, "--browseruse-key", "from-flag")
	if got := resolveBrowserUseKey(cmd); got != "from-flag" {
		t.Errorf("key = %q, want flag to win", got)
	}

	loadedSecrets = nil
	viper.Set("browseruse_key", "")
	cmd, _ = newTaskCmd(t)
	if got := resolveBrowserUseKey(cmd); got != "" {
		t.Errorf("key = %q, want empty when nothing is set", got)
	}
}

func TestPairsSummaryKeepsOrder(t *testing.T) {
	got := pairsSummary(map[string]string{"b": "2", "a": "1"}, []string{"b", "a"})
	if got != "b=2,a=1" {
		t.Errorf("summary = %q", got)
	}
}
