package faults

import (
	"errors"
	"fmt"
)

// #region sentinels

// ErrConfiguration marks setup-time failures: mismatched scale keys, missing or
// out-of-range construction values. Never recovered internally.
var ErrConfiguration = errors.New("configuration error")

// ErrInvalidArgument marks caller errors on per-call arguments (e.g. negative k).
var ErrInvalidArgument = errors.New("invalid argument")

// #endregion sentinels

// #region configuration-error

// ConfigurationError names the offending configuration field.
type ConfigurationError struct {
	Field  string
	Reason string
}

// Configf builds a ConfigurationError with a formatted reason.
func Configf(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// #endregion configuration-error

// #region invalid-argument-error

// InvalidArgumentError reports a rejected argument value.
type InvalidArgumentError struct {
	Arg    string
	Value  interface{}
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s=%v: %s", e.Arg, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }

// #endregion invalid-argument-error
