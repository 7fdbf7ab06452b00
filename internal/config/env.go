package config

import (
	"os"
	"strconv"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "STAGEGATE_STORAGE_BACKEND",
		apply: func(c *Config, v string) {
			c.Storage.Backend = v
		},
	},
	{
		envVar: "STAGEGATE_STORAGE_DIR",
		apply: func(c *Config, v string) {
			c.Storage.Dir = v
		},
	},
	{
		envVar: "STAGEGATE_ARTIFACTS_DIR",
		apply: func(c *Config, v string) {
			c.Artifacts.Dir = v
		},
	},
	{
		envVar: "STAGEGATE_MAX_CYCLES",
		apply: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.Revision.MaxCycles = n
			}
		},
	},
	{
		envVar: "STAGEGATE_TRACKER_URL",
		apply: func(c *Config, v string) {
			c.Tracker.URL = v
		},
	},
	{
		envVar: "STAGEGATE_TRACKER_TOKEN",
		apply: func(c *Config, v string) {
			c.Tracker.Token = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
