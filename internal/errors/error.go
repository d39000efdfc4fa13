package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryServer Category = "server"
	CategoryCLI    Category = "cli"
)

// RelightError is a coded error with detail and a fix suggestion.
type RelightError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (config, build, server, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RelightError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RelightError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *RelightError) WithDetail(d string) *RelightError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RelightError) WithSuggestion(s string) *RelightError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *RelightError) Wrap(err error) *RelightError {
	e.Wrapped = err
	return e
}

// New creates a RelightError from a registered error code.
func New(code string) *RelightError {
	template, ok := registry[code]
	if !ok {
		return &RelightError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RelightError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new RelightError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RelightError {
	return &RelightError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a RelightError.
func FromError(err error, code string) *RelightError {
	if err == nil {
		return nil
	}
	return New(code).Wrap(err)
}

// Is reports whether err carries the given error code.
func Is(err error, code string) bool {
	re, ok := AsRelightError(err)
	return ok && re.Code == code
}

// AsRelightError extracts a *RelightError from an error chain.
func AsRelightError(err error) (*RelightError, bool) {
	for err != nil {
		if re, ok := err.(*RelightError); ok {
			return re, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// joinNonEmpty joins non-empty parts with the separator.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
