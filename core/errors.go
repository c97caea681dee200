// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package core provides shared definitions for the Cirrus client SDK:
// error kinds and time handling.
package core

import (
	"errors"
	"fmt"
)

// Error kinds returned by the SDK. Use errors.Is to test for them,
// the concrete error usually is an *Error carrying resource context.
var (
	// ErrNotFound flags a missing fragment path or a missing resource
	// on read, update or delete.
	ErrNotFound = errors.New("not found")
	// ErrValidation flags a payload that was rejected, either by a local
	// pre-check or by the platform.
	ErrValidation = errors.New("validation failed")
	// ErrConflict flags a domain-specific duplicate or state conflict.
	ErrConflict = errors.New("conflict")
	// ErrTypeConflict flags a fragment path that descends through a
	// scalar value.
	ErrTypeConflict = errors.New("type conflict")
	// ErrUnsupported flags an operation that is not available for the
	// resource variant, e.g. updating an immutable measurement.
	ErrUnsupported = errors.New("operation not supported")
)

// Error decorates one of the error kinds above with the resource type,
// the object identifier and the field or fragment path involved, so that
// misuse is diagnosable without inspecting the wire payload.
type Error struct {
	Kind     error
	Resource string
	ID       string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Resource
	if msg == "" {
		msg = "object"
	}
	if e.ID != "" {
		msg += " " + e.ID
	}
	if e.Path != "" {
		msg += ": path " + e.Path
	}
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the error kind and the underlying cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind error, resource, id, path string, format string, args ...any) error {
	return &Error{
		Kind:     kind,
		Resource: resource,
		ID:       id,
		Path:     path,
		Err:      fmt.Errorf(format, args...),
	}
}
