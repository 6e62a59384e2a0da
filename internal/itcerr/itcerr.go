// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package itcerr defines the two failure kinds of a calculation: configuration
// errors the user can correct, and internal errors that indicate a defect.
package itcerr

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid instrument or observation setup. Its message
// is shown to the user as-is.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// InternalError reports a broken invariant. A calculation that returns one
// must not return partial results.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Op == "" {
		return "internal error: " + e.Err.Error()
	}
	return fmt.Sprintf("internal error in %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Config returns a ConfigError with a formatted message.
func Config(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// Internal returns an InternalError for op with a formatted cause.
func Internal(op, format string, args ...any) error {
	return &InternalError{Op: op, Err: fmt.Errorf(format, args...)}
}

// IsConfig reports whether err wraps a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsInternal reports whether err wraps an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
