package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
)

// ErrorCategory represents the kinds of failure a backtest can report
type ErrorCategory string

const (
	// Fatal for a single run: the window cannot be backtested
	ErrorCategoryDataUnavailable ErrorCategory = "DATA_UNAVAILABLE"
	ErrorCategoryConfiguration   ErrorCategory = "CONFIG"

	// Non-fatal: the scheduled date is skipped
	ErrorCategoryLookupMiss ErrorCategory = "LOOKUP_MISS"

	// Search only: penalized, never surfaced to the optimizer
	ErrorCategoryConstraint ErrorCategory = "CONSTRAINT"
	ErrorCategorySimulation ErrorCategory = "SIMULATION"

	// Data provider transport failures
	ErrorCategoryNetwork ErrorCategory = "NETWORK"
)

// BacktestError represents a categorized error with context
type BacktestError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *BacktestError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *BacktestError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the run that produced this error has to stop
func (e *BacktestError) IsFatal() bool {
	return e.Category == ErrorCategoryDataUnavailable || e.Category == ErrorCategoryConfiguration
}

// New creates a new categorized error
func New(category ErrorCategory, component, operation, message string) *BacktestError {
	return &BacktestError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with category and location
func Wrap(err error, category ErrorCategory, component, operation string) *BacktestError {
	if err == nil {
		return nil
	}
	return &BacktestError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *BacktestError) WithContext(key string, value interface{}) *BacktestError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// CategoryOf returns the category of the first BacktestError in err's chain.
func CategoryOf(err error) (ErrorCategory, bool) {
	var be *BacktestError
	if stderrors.As(err, &be) {
		return be.Category, true
	}
	return "", false
}

func hasCategory(err error, category ErrorCategory) bool {
	c, ok := CategoryOf(err)
	return ok && c == category
}

// IsDataUnavailable reports whether err means the requested window has no data
func IsDataUnavailable(err error) bool { return hasCategory(err, ErrorCategoryDataUnavailable) }

// IsLookupMiss reports whether err is an as-of lookup before the first point
func IsLookupMiss(err error) bool { return hasCategory(err, ErrorCategoryLookupMiss) }

// IsConstraint reports whether err is a constraint or validation failure
func IsConstraint(err error) bool { return hasCategory(err, ErrorCategoryConstraint) }

// IsConfiguration reports whether err comes from configuration validation
func IsConfiguration(err error) bool { return hasCategory(err, ErrorCategoryConfiguration) }

// Common error constructors
func NewDataUnavailableError(component, operation, message string) *BacktestError {
	return New(ErrorCategoryDataUnavailable, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *BacktestError {
	return New(ErrorCategoryConfiguration, component, operation, message)
}

func NewConstraintError(component, operation, message string) *BacktestError {
	return New(ErrorCategoryConstraint, component, operation, message)
}

func NewSimulationError(component, operation string, err error) *BacktestError {
	return Wrap(err, ErrorCategorySimulation, component, operation)
}

func NewNetworkError(component, operation string, err error) *BacktestError {
	return Wrap(err, ErrorCategoryNetwork, component, operation)
}

// ErrorStats tracks error statistics across many runs
type ErrorStats struct {
	mu               sync.Mutex
	TotalErrors      int
	ErrorsByCategory map[ErrorCategory]int
	RecentErrors     []*BacktestError
	MaxRecentErrors  int
}

// NewErrorStats creates a new error statistics tracker
func NewErrorStats(maxRecentErrors int) *ErrorStats {
	return &ErrorStats{
		ErrorsByCategory: make(map[ErrorCategory]int),
		RecentErrors:     make([]*BacktestError, 0, maxRecentErrors),
		MaxRecentErrors:  maxRecentErrors,
	}
}

// RecordError records an error in the statistics
func (es *ErrorStats) RecordError(err *BacktestError) {
	if err == nil {
		return
	}
	es.mu.Lock()
	defer es.mu.Unlock()

	es.TotalErrors++
	es.ErrorsByCategory[err.Category]++

	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > es.MaxRecentErrors {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// Count returns how many errors of a category were recorded
func (es *ErrorStats) Count(category ErrorCategory) int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.ErrorsByCategory[category]
}

// Total returns the number of recorded errors
func (es *ErrorStats) Total() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.TotalErrors
}

// GetErrorRate returns the share of recorded errors in a category
func (es *ErrorStats) GetErrorRate(category ErrorCategory) float64 {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.TotalErrors == 0 {
		return 0.0
	}
	return float64(es.ErrorsByCategory[category]) / float64(es.TotalErrors)
}
