package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrDisplayInit indicates the display surface could not be created.
	ErrDisplayInit = errors.New("dynamo: display initialization failed")

	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrExport indicates a radiance frame could not be written.
	ErrExport = errors.New("dynamo: frame export failed")

	// ErrCanceled indicates the run was stopped by the user or its context.
	ErrCanceled = errors.New("dynamo: run canceled")

	// ErrUnknownField indicates a field name with no registered constructor.
	ErrUnknownField = errors.New("dynamo: unknown velocity field")
)

// ConfigError wraps ErrInvalidConfig with the offending field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ExportError wraps ErrExport with the frame and path being written.
type ExportError struct {
	Frame   int
	Path    string
	Wrapped error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export frame %d to %s: %v", e.Frame, e.Path, e.Wrapped)
}

func (e *ExportError) Unwrap() []error {
	return []error{ErrExport, e.Wrapped}
}
