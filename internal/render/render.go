// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render formats task run results for terminal display and as a
// normalized JSON document.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/ptask/pkg/types"
)

// Display limits, counted in characters rather than bytes. Truncation
// appends a "..." marker, so strings at exactly the limit pass through
// unchanged.
const (
	maxFieldValue   = 200
	maxTextContent  = 2000
	maxBasisEntries = 5
	maxCitations    = 2
)

// FormatHuman renders a run result for the terminal: an identifying header,
// the output branched on its type, then a citations block when basis
// annotations are present. The result carries no trailing newline.
func FormatHuman(res *types.RunResult) string {
	lines := []string{
		"Task: " + res.RunID,
		fmt.Sprintf("Status: %s | Processor: %s", res.Status, res.Processor),
		"",
	}

	if res.Output != nil {
		content := res.Output.Content
		obj, isObject := content.(map[string]any)
		switch {
		case res.Output.Type == types.OutputJSON && isObject:
			lines = append(lines, "Results:")
			keys := make([]string, 0, len(obj))
			for key := range obj {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				value := truncate(stringify(obj[key]), maxFieldValue)
				lines = append(lines, fmt.Sprintf("  - %s: %s", key, value))
			}
		case res.Output.Type == types.OutputText:
			lines = append(lines, "Report:", truncate(stringify(content), maxTextContent))
		default:
			lines = append(lines, fmt.Sprintf("Output (%s):", res.Output.Type),
				truncate(stringify(content), maxTextContent))
		}

		if len(res.Output.Basis) > 0 {
			lines = append(lines, "", "Citations:")
			entries := res.Output.Basis
			if len(entries) > maxBasisEntries {
				entries = entries[:maxBasisEntries]
			}
			for _, basis := range entries {
				field, confidence := basis.Field, basis.Confidence
				if field == "" {
					field = "result"
				}
				if confidence == "" {
					confidence = "unknown"
				}
				lines = append(lines, fmt.Sprintf("  [%s] confidence: %s", field, confidence))
				citations := basis.Citations
				if len(citations) > maxCitations {
					citations = citations[:maxCitations]
				}
				for _, cite := range citations {
					lines = append(lines, fmt.Sprintf("    - %s: %s", cite.Title, cite.URL))
				}
			}
		}
	}

	return strings.Join(lines, "\n")
}

// FormatJSON renders the normalized document with two-space indentation.
func FormatJSON(res *types.RunResult) (string, error) {
	doc := BuildDocument(res)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(data), nil
}

// Document is the normalized result shape shared by --json output and saved
// result files. Basis annotations sit at the top level, beside the output.
type Document struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Status    string          `json:"status" yaml:"status"`
	Processor string          `json:"processor" yaml:"processor"`
	Output    *DocumentOutput `json:"output,omitempty" yaml:"output,omitempty"`
	Basis     []DocumentBasis `json:"basis,omitempty" yaml:"basis,omitempty"`
}

type DocumentOutput struct {
	Type    string `json:"type" yaml:"type"`
	Content any    `json:"content" yaml:"content"`
}

// DocumentBasis keeps absent field and confidence values explicit as nulls.
type DocumentBasis struct {
	Field      *string            `json:"field" yaml:"field"`
	Confidence *string            `json:"confidence" yaml:"confidence"`
	Citations  []DocumentCitation `json:"citations" yaml:"citations"`
}

type DocumentCitation struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// BuildDocument normalizes a run result. Output content that cannot be
// marshaled is coerced to its string form rather than failing the render.
func BuildDocument(res *types.RunResult) Document {
	doc := Document{
		RunID:     res.RunID,
		Status:    string(res.Status),
		Processor: res.Processor,
	}
	if res.Output == nil {
		return doc
	}

	doc.Output = &DocumentOutput{
		Type:    string(res.Output.Type),
		Content: marshalable(res.Output.Content),
	}
	for _, basis := range res.Output.Basis {
		entry := DocumentBasis{
			Field:      optional(basis.Field),
			Confidence: optional(basis.Confidence),
			Citations:  make([]DocumentCitation, 0, len(basis.Citations)),
		}
		for _, cite := range basis.Citations {
			entry.Citations = append(entry.Citations, DocumentCitation{Title: cite.Title, URL: cite.URL})
		}
		doc.Basis = append(doc.Basis, entry)
	}
	return doc
}

// RunResult rebuilds the run result a document describes, so a saved
// document can go back through either renderer.
func (d Document) RunResult() *types.RunResult {
	res := &types.RunResult{
		RunID:     d.RunID,
		Status:    types.RunStatus(d.Status),
		Processor: d.Processor,
	}
	if d.Output == nil {
		return res
	}

	res.Output = &types.Output{
		Type:    types.OutputType(d.Output.Type),
		Content: d.Output.Content,
	}
	for _, basis := range d.Basis {
		entry := types.Basis{}
		if basis.Field != nil {
			entry.Field = *basis.Field
		}
		if basis.Confidence != nil {
			entry.Confidence = *basis.Confidence
		}
		for _, cite := range basis.Citations {
			entry.Citations = append(entry.Citations, types.Citation{Title: cite.Title, URL: cite.URL})
		}
		res.Output.Basis = append(res.Output.Basis, entry)
	}
	return res
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func marshalable(v any) any {
	if v == nil {
		return nil
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}
