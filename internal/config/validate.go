package config

import (
	"github.com/thoreinstein/mcpsync/internal/errors"
	"github.com/thoreinstein/mcpsync/internal/source"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrUnknownTool indicates enabled_tools names a tool the catalog lacks.
	ErrUnknownTool = errors.New("unknown tool")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	if _, err := source.ParseMode(cfg.SourceMode); err != nil {
		errs = append(errs, &FieldError{Field: "source_mode", Err: err})
	}

	if cfg.Backup.MaxBackups < 0 {
		errs = append(errs, &FieldError{Field: "backup.max_backups", Err: errors.Newf("must be >= 0, got %d", cfg.Backup.MaxBackups)})
	}

	cat, err := cfg.Catalog()
	if err != nil {
		errs = append(errs, &FieldError{Field: "tools", Err: err})
		return errs
	}
	for _, id := range cfg.EnabledTools {
		if _, err := cat.Lookup(id); err != nil {
			errs = append(errs, &FieldError{Field: "enabled_tools", Err: errors.Wrapf(ErrUnknownTool, "%s", id)})
		}
	}

	return errs
}

// FieldError represents an error for a specific config field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
