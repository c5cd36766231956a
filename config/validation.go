package config

import (
	"fmt"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateServer(&c.Server)...)
	errors = append(errors, validateData(&c.Data)...)
	errors = append(errors, validateStream(&c.Stream)...)
	errors = append(errors, validateWatcher(&c.Watcher)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateServer(s *ServerConfig) []ValidationError {
	var errors []ValidationError

	if s.Port < 1 || s.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", s.Port),
		})
	}

	if s.StaticDir == "" {
		errors = append(errors, ValidationError{
			Field:   "server.static_dir",
			Message: "must not be empty",
		})
	}

	return errors
}

func validateData(d *DataConfig) []ValidationError {
	var errors []ValidationError

	if d.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "data.dir",
			Message: "must not be empty",
		})
	}

	return errors
}

func validateStream(s *StreamConfig) []ValidationError {
	var errors []ValidationError

	if s.PollInterval < 100*time.Millisecond {
		errors = append(errors, ValidationError{
			Field:   "stream.poll_interval",
			Message: "must be at least 100ms",
		})
	}

	return errors
}

func validateWatcher(w *WatcherConfig) []ValidationError {
	var errors []ValidationError

	if w.PollInterval < 100*time.Millisecond {
		errors = append(errors, ValidationError{
			Field:   "watcher.poll_interval",
			Message: "must be at least 100ms",
		})
	}

	return errors
}
