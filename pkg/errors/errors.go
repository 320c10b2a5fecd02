package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents page parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeRefresh represents a failure of a whole refresh batch
	ErrorTypeRefresh ErrorType = "refresh"
)

// MonitorError represents an error raised somewhere in the monitoring pipeline
type MonitorError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time

	// RetryAfter is how long the source asked us to back off, rate_limit only
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *MonitorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *MonitorError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *MonitorError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRefresh:
		return true
	default:
		return false
	}
}

// Is reports whether target is a MonitorError of the same type.
// This lets callers write errors.Is(err, &MonitorError{Type: ErrorTypeRateLimit}).
func (e *MonitorError) Is(target error) bool {
	t, ok := target.(*MonitorError)
	if !ok {
		return false
	}
	return t.Type == e.Type && (t.Source == "" || t.Source == e.Source)
}

// New creates a new MonitorError
func New(errType ErrorType, source, message string, err error) *MonitorError {
	return &MonitorError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *MonitorError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *MonitorError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *MonitorError {
	message := fmt.Sprintf("rate limited for %v", duration)
	e := New(ErrorTypeRateLimit, source, message, nil)
	e.RetryAfter = duration
	return e
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *MonitorError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *MonitorError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *MonitorError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *MonitorError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewRefresh creates a new batch-level refresh error
func NewRefresh(message string, err error) *MonitorError {
	return New(ErrorTypeRefresh, "monitor", message, err)
}
