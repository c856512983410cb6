// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The package consolidates the 3-step CUE parsing pattern used by the
// manifest and config packages: compile the embedded schema, compile the
// user data, then unify, validate, and decode into a Go struct.
package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// ParseResult contains the result of a successful CUE parse operation.
type ParseResult[T any] struct {
	// Value is the decoded Go struct.
	Value *T

	// Unified is the unified CUE value, available for advanced use cases
	// such as extracting additional metadata or performing custom validation.
	Unified cue.Value
}

// ParseAndDecode performs the 3-step CUE parsing flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// schemaPath is the path to the root definition (e.g., "#Bindlefile",
// "#Config"). The returned error includes the CUE path of the offending
// field when validation fails.
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	// Step 1: compile the embedded schema.
	schemaValue := ctx.CompileString(string(schema))
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if def.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, def.Err())
	}

	// Step 2: compile user data and unify with the schema definition.
	compileOpts := []cue.BuildOption{}
	if options.filename != "" {
		compileOpts = append(compileOpts, cue.Filename(options.filename))
	}
	dataValue := ctx.CompileString(string(data), compileOpts...)
	if dataValue.Err() != nil {
		return nil, FormatError(dataValue.Err(), options.filename)
	}

	unified := def.Unify(dataValue)

	// Step 3: validate and decode.
	validateOpts := []cue.Option{cue.Final()}
	if options.concrete {
		validateOpts = append(validateOpts, cue.Concrete(true))
	}
	if err := unified.Validate(validateOpts...); err != nil {
		return nil, FormatError(err, options.filename)
	}

	var value T
	if err := unified.Decode(&value); err != nil {
		return nil, FormatError(err, options.filename)
	}

	return &ParseResult[T]{Value: &value, Unified: unified}, nil
}

// ParseAndDecodeString is a convenience wrapper for callers holding the
// schema as a string (the usual //go:embed form).
func ParseAndDecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	return ParseAndDecode[T]([]byte(schema), data, schemaPath, opts...)
}

// CheckFileSize verifies that data does not exceed the specified maximum size.
// Returns an error if the size limit is exceeded.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		name := filename
		if name == "" {
			name = "input"
		}
		return fmt.Errorf("%s exceeds maximum size of %d bytes (got %d)", name, maxSize, len(data))
	}
	return nil
}

// FormatError formats a CUE error with JSON path prefixes for clear error
// messages.
//
// Error format: <file-path>: <json-path>: <message>
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var sb strings.Builder
	for i, e := range cueerrors.Errors(err) {
		if i > 0 {
			sb.WriteString("\n")
		}
		if filePath != "" {
			sb.WriteString(filePath)
			sb.WriteString(": ")
		}
		if path := e.Path(); len(path) > 0 {
			sb.WriteString(strings.Join(path, "."))
			sb.WriteString(": ")
		}
		format, args := e.Msg()
		fmt.Fprintf(&sb, format, args...)
	}

	return fmt.Errorf("%s", sb.String())
}
