package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ptask/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds settings for the task API client.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates requests to the task API (x-api-key header).
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// PollConfig holds settings for the completion poller.
type PollConfig struct {
	// Interval is the fixed delay between status checks (default 2s).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Timeout is the wall-clock polling budget, measured from poll-loop
	// entry (default 5m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RunLogConfig holds settings for the local run history store.
type RunLogConfig struct {
	// Dir is the directory holding the history database (default ".ptask").
	Dir string `json:"dir" yaml:"dir"`
}
