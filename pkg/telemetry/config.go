package telemetry

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error, fatal).
	Level string `validate:"omitempty,oneof=trace debug info warn error fatal"`

	// Format specifies the log format (console, json).
	Format string `validate:"omitempty,oneof=console json"`

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool

	// TimeFormat specifies the timestamp format (unix, unixms, unixmicro, rfc3339).
	TimeFormat string `validate:"omitempty,oneof=unix unixms unixmicro rfc3339"`
}

// DefaultLoggingConfig returns a console configuration writing to stderr
// at info level.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "rfc3339",
	}
}

// Validate checks if the configuration is valid.
func (c LoggingConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	return nil
}
