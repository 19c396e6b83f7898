// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taskapi

import (
	"github.com/pdiddy/ptask/pkg/types"
)

// browseruse is the remote tool server for authenticated page access.
const (
	browserUseURL  = "https://api.browser-use.com/mcp"
	browserUseName = "browseruse"

	// betaMCPServer is the capability flag the API requires whenever MCP
	// servers are attached to a run.
	betaMCPServer = "mcp-server-2025-07-17"
)

// RunParams collects everything that shapes a run-creation request.
type RunParams struct {
	// Input is a free-text query string or an enrichment input map.
	Input any

	// Processor is the tier that executes the task.
	Processor types.Processor

	// TaskSpec declares input/output schemas. Nil for plain queries.
	TaskSpec *types.TaskSpec

	// IncludeDomains and ExcludeDomains filter the sources the task may
	// draw from.
	IncludeDomains []string
	ExcludeDomains []string

	// BrowserUseKey, when set, grants the task authenticated page access
	// through the browser-use tool server.
	BrowserUseKey string
}

// BuildRequest assembles the create-run request. A source policy is attached
// only when at least one domain list is non-empty. A browser-use key attaches
// the tool server descriptor with its bearer token and activates the beta
// capability flag the API requires for MCP servers.
func BuildRequest(p RunParams) types.TaskRequest {
	req := types.TaskRequest{
		Input:     p.Input,
		Processor: p.Processor,
		TaskSpec:  p.TaskSpec,
	}

	if len(p.IncludeDomains) > 0 || len(p.ExcludeDomains) > 0 {
		req.SourcePolicy = &types.SourcePolicy{
			IncludeDomains: p.IncludeDomains,
			ExcludeDomains: p.ExcludeDomains,
		}
	}

	if p.BrowserUseKey != "" {
		req.MCPServers = []types.MCPServer{{
			Type:    "url",
			URL:     browserUseURL,
			Name:    browserUseName,
			Headers: map[string]string{"Authorization": "Bearer " + p.BrowserUseKey},
		}}
		req.Betas = []string{betaMCPServer}
	}

	return req
}
