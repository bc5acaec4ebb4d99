package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every configuration error.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownKey indicates a lookup for a region, technology or scenario
	// that the data store does not hold.
	ErrUnknownKey = errors.New("unknown key")
)

// ConfigError reports the configuration key that failed validation.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

// Unwrap exposes ErrInvalidConfig and the optional cause to errors.Is.
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}

func unknownKey(key string) error {
	return &ConfigError{Key: key, Reason: "not present in scenario data", Err: ErrUnknownKey}
}
