// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError carries the context a user needs to act on a failure:
	// the operation that failed, the resource involved, and remediation
	// suggestions.
	//
	// Built fluently through ErrorContext:
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load bindlefile").
	//		WithResource("./bindlefile.cue").
	//		WithSuggestion("Run 'bindle init' to create one").
	//		Wrap(originalErr).
	//		Build()
	ActionableError struct {
		// Operation is the verb phrase that failed, e.g. "pack archive".
		Operation string

		// Resource is the file, path, or entity involved. Optional.
		Resource string

		// Suggestions are remediation hints shown under the message. Optional.
		Suggestions []string

		// Cause is the underlying error. Optional.
		Cause error
	}

	// ErrorContext accumulates ActionableError fields incrementally so call
	// sites can attach context before the failing call and suggestions after.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// NewActionableError creates an ActionableError for the given operation.
// For anything beyond an operation name, use NewErrorContext.
func NewActionableError(operation string) *ActionableError {
	return &ActionableError{Operation: operation}
}

// NewErrorContext creates an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithOperation attaches an operation to err. Returns nil for a nil err
// so it can wrap a call's return value directly.
func WrapWithOperation(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Cause: err}
}

// WrapWithContext attaches an operation and resource to err. Returns nil for
// a nil err.
func WrapWithContext(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Resource: resource, Cause: err}
}

// Error returns the concise single-line message used in non-verbose output.
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the cause for errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// HasSuggestions reports whether any remediation hints are attached.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// Format renders the message with suggestion bullets. Verbose output also
// walks the wrapped error chain, one numbered line per cause.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	if e.HasSuggestions() {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		for err, depth := e.Cause, 1; err != nil; err, depth = errors.Unwrap(err), depth+1 {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
		}
	}

	return msg.String()
}

// WithOperation sets the verb phrase that failed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the file, path, or entity involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends one remediation hint.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// WithSuggestions appends remediation hints in bulk.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, sugs...)
	return c
}

// Wrap records the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build creates the ActionableError. Returns nil when no operation is set;
// an actionable error without an operation has nothing to report.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError is Build returned as a plain error for direct use in returns.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
