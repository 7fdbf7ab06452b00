package config

import (
	"errors"
	"fmt"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity. Returns nil if
// valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.Revision.MaxCycles < 1 {
		errs = append(errs, &ValidationError{
			Field:   "revision.max_cycles",
			Value:   cfg.Revision.MaxCycles,
			Message: "must be at least 1",
		})
	}

	switch cfg.Storage.Backend {
	case "json", "sqlite":
	default:
		errs = append(errs, &ValidationError{
			Field:   "storage.backend",
			Value:   cfg.Storage.Backend,
			Message: "must be 'json' or 'sqlite'",
		})
	}

	seen := make(map[string]bool)
	for i, st := range cfg.Stages {
		field := fmt.Sprintf("stages[%d]", i)

		if st.Name == "" {
			errs = append(errs, &ValidationError{
				Field:   field + ".name",
				Value:   st.Name,
				Message: "must not be empty",
			})
		} else if seen[st.Name] {
			errs = append(errs, &ValidationError{
				Field:   field + ".name",
				Value:   st.Name,
				Message: "duplicate stage name",
			})
		}
		seen[st.Name] = true

		if st.Producer == "" {
			errs = append(errs, &ValidationError{
				Field:   field + ".producer",
				Value:   st.Producer,
				Message: "must not be empty",
			})
		} else if len(cfg.Producers) > 0 {
			if _, ok := cfg.Producers[st.Producer]; !ok {
				errs = append(errs, &ValidationError{
					Field:   field + ".producer",
					Value:   st.Producer,
					Message: "not defined in producers",
				})
			}
		}
	}

	for id, p := range cfg.Producers {
		if p.Command == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("producers.%s.command", id),
				Value:   p.Command,
				Message: "must not be empty",
			})
		}
		if _, err := p.TimeoutDuration(); err != nil {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("producers.%s.timeout", id),
				Value:   p.Timeout,
				Message: "must be a valid duration",
			})
		}
	}

	return errors.Join(errs...)
}
