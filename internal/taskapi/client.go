// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taskapi is the HTTP client for the Parallel Task API: run creation
// and result retrieval. The wire protocol, authentication scheme, and status
// vocabulary are owned by the remote service; this package only assembles
// requests and flattens the response envelopes.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/ptask/internal/httputil"
	"github.com/pdiddy/ptask/pkg/types"
)

// taskAPIBase is the Parallel Task API endpoint. Declared as a var so tests
// can substitute an httptest server.
var taskAPIBase = "https://api.parallel.ai"

const runsPath = "/v1/tasks/runs"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "ptask/0.1"

	// Status polls back off at most twice on HTTP 429 so a rate-limit storm
	// cannot mask the poll timeout.
	resultMaxRetries = 2
)

// Client calls the task API. Requests carry the API key in the x-api-key
// header. Run creation is issued exactly once; result fetches back off and
// retry on HTTP 429 since the status poller calls them in a tight loop.
type Client struct {
	HTTPClient *http.Client
	APIKey     string
	UserAgent  string
}

// New builds a Client from cfg, applying the default timeout and user agent
// where cfg leaves them zero.
func New(cfg types.ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		APIKey:     cfg.APIKey,
		UserAgent:  userAgent,
	}
}

// CreateRun submits a task run and returns its handle. The creation call is
// issued exactly once.
func (c *Client) CreateRun(ctx context.Context, req types.TaskRequest) (*types.TaskRun, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding task request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, taskAPIBase+runsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)
	if len(req.Betas) > 0 {
		httpReq.Header.Set("parallel-beta", strings.Join(req.Betas, ","))
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("task API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httputil.ErrorFromResponse(resp)
	}

	var cr createResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing create response: %w", err)
	}

	run := cr.taskRun()
	if run.RunID == "" {
		return nil, fmt.Errorf("create response carries no run_id")
	}
	return run, nil
}

// Result retrieves the current state of a run. The run may still be in
// progress; callers decide whether to keep polling.
func (c *Client) Result(ctx context.Context, runID string) (*types.RunResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, taskAPIBase+runsPath+"/"+runID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := httputil.DoWithRetry(ctx, c.HTTPClient, httpReq, resultMaxRetries)
	if err != nil {
		return nil, fmt.Errorf("task API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httputil.ErrorFromResponse(resp)
	}

	var rr resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return nil, fmt.Errorf("parsing result response: %w", err)
	}
	return rr.runResult(), nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
}

// Task API JSON structures. Responses arrive either flat or wrapped in a
// run envelope; both shapes must be accepted.
type wireRun struct {
	RunID     string          `json:"run_id"`
	Status    types.RunStatus `json:"status"`
	Processor string          `json:"processor"`
	Error     *types.RunError `json:"error"`
}

type createResponse struct {
	Run *wireRun `json:"run"`
	wireRun
}

type resultResponse struct {
	Run *wireRun `json:"run"`
	wireRun
	Output *types.Output `json:"output"`
}

// flatten resolves the two response shapes: the wrapped run wins when
// present, otherwise the flat fields apply.
func flatten(envelope *wireRun, flat wireRun) wireRun {
	if envelope != nil {
		return *envelope
	}
	return flat
}

func (r *createResponse) taskRun() *types.TaskRun {
	run := flatten(r.Run, r.wireRun)
	return &types.TaskRun{
		RunID:     run.RunID,
		Status:    run.Status,
		Processor: run.Processor,
	}
}

func (r *resultResponse) runResult() *types.RunResult {
	run := flatten(r.Run, r.wireRun)
	return &types.RunResult{
		RunID:     run.RunID,
		Status:    run.Status,
		Processor: run.Processor,
		Error:     run.Error,
		Output:    r.Output,
	}
}
