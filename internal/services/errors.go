package services

import "fmt"

// ConfigurationError means a required credential or setting is missing.
// No network request was made.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// GenerationError means the model answered but the answer was empty or unusable.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation error: %s: %v", e.Reason, e.Err)
	}
	return "generation error: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NetworkError means the request could not be completed: a transport failure
// or a non-success status from the provider.
type NetworkError struct {
	StatusCode int // zero for transport failures
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
