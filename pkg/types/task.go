// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ptask CLI: the
// task-creation request, the schema specifications attached to it, and the
// run/result shapes reported back by the Parallel Task API.
package types

import "fmt"

// Processor selects the processor tier that executes a task.
type Processor string

const (
	ProcessorBase  Processor = "base"  // fast
	ProcessorCore  Processor = "core"  // standard
	ProcessorUltra Processor = "ultra" // deep research
)

// ParseProcessor validates s against the known processor tiers.
func ParseProcessor(s string) (Processor, error) {
	switch Processor(s) {
	case ProcessorBase, ProcessorCore, ProcessorUltra:
		return Processor(s), nil
	}
	return "", fmt.Errorf("invalid processor %q: use base, core, or ultra", s)
}

// TaskRequest is the body of a run-creation call. Input is either a
// free-text query string or a map of enrichment input fields.
type TaskRequest struct {
	Input     any       `json:"input"`
	Processor Processor `json:"processor"`

	// TaskSpec declares the input/output schemas. Nil for plain queries.
	TaskSpec *TaskSpec `json:"task_spec,omitempty"`

	// SourcePolicy restricts the domains the task may draw from. Attached
	// only when at least one domain list is non-empty.
	SourcePolicy *SourcePolicy `json:"source_policy,omitempty"`

	// MCPServers lists remote tool servers the task may call, e.g. for
	// authenticated page access.
	MCPServers []MCPServer `json:"mcp_servers,omitempty"`

	// Betas lists capability flags required by the request. They travel in
	// the parallel-beta request header, not in the body.
	Betas []string `json:"-"`
}

// TaskSpec declares the schemas a task must honor. Enrichment tasks carry
// both schemas; report tasks carry only a text output schema.
type TaskSpec struct {
	InputSchema  *SchemaSpec `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
	OutputSchema *SchemaSpec `json:"output_schema,omitempty" yaml:"output_schema,omitempty"`
}

// SchemaSpec is one side of a task spec: {"type":"text"} for free text, or
// {"type":"json"} with an attached JSON schema.
type SchemaSpec struct {
	Type       string      `json:"type" yaml:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty" yaml:"json_schema,omitempty"`
}

// JSONSchema is the object schema carried by a json SchemaSpec. Additional
// properties are always disallowed so the remote service rejects fields the
// caller never declared.
type JSONSchema struct {
	Type                 string              `json:"type" yaml:"type"`
	Properties           map[string]Property `json:"properties" yaml:"properties"`
	Required             []string            `json:"required" yaml:"required"`
	AdditionalProperties bool                `json:"additionalProperties" yaml:"additionalProperties"`
}

// Property describes a single schema property.
type Property struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SourcePolicy filters the web sources a task may use.
type SourcePolicy struct {
	IncludeDomains []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`
}

// MCPServer describes a remote tool server attached to a task run.
type MCPServer struct {
	Type    string            `json:"type" yaml:"type"`
	URL     string            `json:"url" yaml:"url"`
	Name    string            `json:"name" yaml:"name"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}
