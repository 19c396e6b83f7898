// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package taskfile reads YAML task definitions and saves completed result
// documents. A task file carries the same information as the submission
// flags, so a repeatable task can live next to the data it enriches.
package taskfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ptask/internal/render"
)

// TaskFile is the on-disk representation of a task submission. Input is
// either a plain query string or a mapping of enrichment fields.
type TaskFile struct {
	Input          any      `yaml:"input"`
	OutputFields   []string `yaml:"output_fields,omitempty"`
	Processor      string   `yaml:"processor,omitempty"`
	IncludeDomains []string `yaml:"include_domains,omitempty"`
	ExcludeDomains []string `yaml:"exclude_domains,omitempty"`
}

// Load reads a task definition from a YAML file.
func Load(path string) (*TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	var f TaskFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing task file: %w", err)
	}
	return &f, nil
}

// InputData normalizes the input field: a scalar becomes the query string,
// a mapping becomes enrichment input data with stringified values.
func (f *TaskFile) InputData() (string, map[string]string, error) {
	switch v := f.Input.(type) {
	case nil:
		return "", nil, errors.New("task file has no input")
	case string:
		if strings.TrimSpace(v) == "" {
			return "", nil, errors.New("task file has no input")
		}
		return v, nil, nil
	case map[string]any:
		if len(v) == 0 {
			return "", nil, errors.New("task file has no input")
		}
		data := make(map[string]string, len(v))
		for key, val := range v {
			data[key] = fmt.Sprint(val)
		}
		return "", data, nil
	default:
		return "", nil, fmt.Errorf("task file input must be a string or a mapping, got %T", v)
	}
}

// ResultFile is the saved form of a completed run: the submission summary,
// the normalized result document, and a timestamp.
type ResultFile struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Mode      string          `json:"mode" yaml:"mode"`
	Processor string          `json:"processor" yaml:"processor"`
	Input     string          `json:"input" yaml:"input"`
	Result    render.Document `json:"result" yaml:"result"`
	SavedAt   time.Time       `json:"saved_at" yaml:"saved_at"`
}

// WriteResult saves a result file, as JSON when the path ends in .json and
// YAML otherwise. The write goes through a temp file in the destination
// directory and a rename, so an interrupted save never leaves a partial file.
func WriteResult(path string, rf ResultFile) error {
	if rf.SavedAt.IsZero() {
		rf.SavedAt = time.Now().UTC()
	}

	asJSON := strings.HasSuffix(path, ".json")

	var data []byte
	var err error
	if asJSON {
		data, err = json.MarshalIndent(&rf, "", "  ")
	} else {
		data, err = yaml.Marshal(&rf)
	}
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	if asJSON {
		data = append(data, '\n')
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".ptask-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ReadResult loads a previously saved result file.
func ReadResult(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &rf)
	} else {
		err = yaml.Unmarshal(data, &rf)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}
