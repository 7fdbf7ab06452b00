// Package config loads and validates the stagegate configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for stagegate. It is immutable after
// creation via LoadConfig().
type Config struct {
	// Project names the pipeline run; artifacts are filed under it.
	Project string `yaml:"project"`

	// Idea is the free-form product description fed to the first stage.
	Idea string `yaml:"idea"`

	// Storage selects and locates the persistence backend.
	Storage StorageConfig `yaml:"storage"`

	// Revision bounds the automatic revision cycles.
	Revision RevisionConfig `yaml:"revision"`

	// Artifacts controls approved-artifact filing.
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Notify configures reviewer notification backends.
	Notify NotifyConfig `yaml:"notify"`

	// Tracker configures the ticket-system webhook.
	Tracker TrackerConfig `yaml:"tracker"`

	// Producers maps producer ids to external commands.
	Producers map[string]ProducerConfig `yaml:"producers"`

	// Stages is the ordered pipeline definition.
	Stages []StageConfig `yaml:"stages"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "json" or "sqlite".
	Backend string `yaml:"backend"`

	// Dir is the directory holding the store files.
	Dir string `yaml:"dir"`
}

// RevisionConfig bounds revision cycles per (producer, stage).
type RevisionConfig struct {
	// MaxCycles is the revision budget before the limit is reached.
	MaxCycles int `yaml:"max_cycles"`

	// AutoApproveAfterMax accepts the final revision without another
	// review once the limit is hit.
	AutoApproveAfterMax bool `yaml:"auto_approve_after_max"`
}

// ArtifactsConfig controls where approved artifacts are written.
type ArtifactsConfig struct {
	// Dir is the base output directory.
	Dir string `yaml:"dir"`
}

// NotifyConfig configures notification backends.
type NotifyConfig struct {
	// Backends lists enabled backends: terminal, slack, webhook, none.
	Backends []string `yaml:"backends"`

	// SlackWebhook is the Slack incoming-webhook URL.
	SlackWebhook string `yaml:"slack_webhook,omitempty"`

	// WebhookURL is the generic webhook endpoint.
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// TrackerConfig configures the ticket tracker webhook.
type TrackerConfig struct {
	// URL is the tracker endpoint. Empty disables ticket creation.
	URL string `yaml:"url,omitempty"`

	// Token is sent as a bearer token when set.
	Token string `yaml:"token,omitempty"`
}

// ProducerConfig describes one external producer command.
type ProducerConfig struct {
	// Command is the executable to run.
	Command string `yaml:"command"`

	// Args are passed to the command verbatim.
	Args []string `yaml:"args,omitempty"`

	// WorkDir is the working directory for the command.
	WorkDir string `yaml:"workdir,omitempty"`

	// Timeout bounds one invocation, as a Go duration string ("10m").
	Timeout string `yaml:"timeout,omitempty"`
}

// TimeoutDuration parses the configured timeout. Empty means none.
func (p ProducerConfig) TimeoutDuration() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(p.Timeout)
}

// StageConfig is one ordered pipeline stage.
type StageConfig struct {
	// Name identifies the stage.
	Name string `yaml:"name"`

	// Producer is the id of the producer that generates content.
	Producer string `yaml:"producer"`

	// ArtifactType labels the content for filing and history.
	ArtifactType string `yaml:"artifact_type"`

	// Task is the producer instruction template. {idea} expands to the
	// project idea, {previous} to the previous stage's approved output.
	Task string `yaml:"task,omitempty"`

	// Tickets pushes the approved content to the ticket tracker.
	Tickets bool `yaml:"tickets,omitempty"`
}

// LoadConfig reads path, applies defaults and environment overrides, and
// validates. A missing file is not an error; defaults apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
