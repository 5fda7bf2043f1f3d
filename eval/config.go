package eval

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/evalmesh/core"
)

// Duration is a time.Duration that unmarshals from YAML strings like "60s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RunConfig is the file-based run configuration. It covers the knobs that
// vary between runs of the same task; datasets, solvers and scorers stay in
// code.
type RunConfig struct {
	// Model is the default model identifier, e.g. "openai/gpt-4o-mini".
	Model string `yaml:"model"`
	// Roles maps role names to model identifiers.
	Roles map[string]string `yaml:"roles,omitempty"`
	// Epochs is the number of dataset passes.
	Epochs int `yaml:"epochs,omitempty"`
	// MessageLimit bounds per-sample transcripts.
	MessageLimit int `yaml:"message_limit,omitempty"`
	// MaxConsecutiveFailures aborts the run when tripped; 0 disables it.
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures,omitempty"`
	// FailureRateThreshold aborts the run when tripped; 0 disables it.
	FailureRateThreshold float64 `yaml:"failure_rate_threshold,omitempty"`
	// Generate holds generation defaults.
	Generate GenerateConfig `yaml:"generate,omitempty"`
	// Sandbox selects the sandbox provider ("local", "docker" or empty).
	Sandbox SandboxConfig `yaml:"sandbox,omitempty"`
	// ToolTimeout bounds each tool call, e.g. "180s".
	ToolTimeout Duration `yaml:"tool_timeout,omitempty"`
}

// GenerateConfig is the YAML form of the generation defaults.
type GenerateConfig struct {
	Temperature    *float64 `yaml:"temperature,omitempty"`
	TopP           *float64 `yaml:"top_p,omitempty"`
	MaxTokens      int      `yaml:"max_tokens,omitempty"`
	Timeout        Duration `yaml:"timeout,omitempty"`
	MaxRetries     int      `yaml:"max_retries,omitempty"`
	MaxConnections int      `yaml:"max_connections,omitempty"`
	Cache          *bool    `yaml:"cache,omitempty"`
}

// SandboxConfig selects and parameterizes the sandbox provider.
type SandboxConfig struct {
	Type  string `yaml:"type,omitempty"`
	Image string `yaml:"image,omitempty"`
}

// LoadConfig reads a YAML run configuration from path.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML run configuration.
func ParseConfig(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RunConfig) validate() error {
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must not be negative")
	}
	if c.FailureRateThreshold < 0 || c.FailureRateThreshold > 1 {
		return fmt.Errorf("failure_rate_threshold must be in [0, 1]")
	}
	switch c.Sandbox.Type {
	case "", "local", "docker":
	default:
		return fmt.Errorf("unknown sandbox type %q", c.Sandbox.Type)
	}
	return nil
}

// GenerateConfig converts the YAML generation settings to the resolved
// per-call form.
func (c *RunConfig) GenerateConfig() core.GenerateConfig {
	return core.GenerateConfig{
		Temperature:    c.Generate.Temperature,
		TopP:           c.Generate.TopP,
		MaxTokens:      c.Generate.MaxTokens,
		Timeout:        c.Generate.Timeout.Std(),
		MaxRetries:     c.Generate.MaxRetries,
		MaxConnections: c.Generate.MaxConnections,
		Cache:          c.Generate.Cache,
	}
}

// Options expands the configuration into task options. Model clients are
// bound by the caller; this covers the scalar knobs.
func (c *RunConfig) Options() []func(o *TaskOptions) {
	var opts []func(o *TaskOptions)
	if c.Epochs > 0 {
		opts = append(opts, WithEpochs(c.Epochs))
	}
	if c.MessageLimit > 0 {
		opts = append(opts, WithMessageLimit(c.MessageLimit))
	}
	if c.MaxConsecutiveFailures > 0 {
		opts = append(opts, WithMaxConsecutiveFailures(c.MaxConsecutiveFailures))
	}
	if c.FailureRateThreshold > 0 {
		opts = append(opts, WithFailureRateThreshold(c.FailureRateThreshold))
	}
	if c.ToolTimeout > 0 {
		opts = append(opts, WithToolTimeout(c.ToolTimeout.Std()))
	}
	opts = append(opts, WithGenerateConfig(c.GenerateConfig()))
	return opts
}
