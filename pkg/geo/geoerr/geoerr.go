// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package geoerr defines the error categories shared by the geometry
// packages. Errors are built with cockroachdb/errors and carry a mark that
// callers test with errors.Is.
package geoerr

import "github.com/cockroachdb/errors"

var (
	// MalformedInput marks truncated buffers, bad tags, bad hex and
	// lexically invalid text.
	MalformedInput = errors.New("malformed input")
	// TypeMismatch marks dimension mismatches and disallowed collection
	// members.
	TypeMismatch = errors.New("type mismatch")
	// InvariantViolation marks internal size or layout disagreements.
	InvariantViolation = errors.New("invariant violation")
	// DegenerateGeometry marks inputs that cannot produce a result, such as
	// antipodal geodetic edges.
	DegenerateGeometry = errors.New("degenerate geometry")
	// ReadOnly marks attempts to mutate a borrowed point array.
	ReadOnly = errors.New("read-only point array")
	// InvalidGeometry marks geometries rejected by a parse check (minimum
	// points, odd points, closure).
	InvalidGeometry = errors.New("invalid geometry")
)

// NewMalformedInputf returns a new MalformedInput error.
func NewMalformedInputf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), MalformedInput)
}

// WrapMalformedInputf wraps err and marks it as MalformedInput.
func WrapMalformedInputf(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.WrapWithDepthf(1, err, format, args...), MalformedInput)
}

// NewTypeMismatchf returns a new TypeMismatch error.
func NewTypeMismatchf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), TypeMismatch)
}

// NewInvariantViolationf returns an assertion failure that is also marked
// InvariantViolation.
func NewInvariantViolationf(format string, args ...interface{}) error {
	return errors.Mark(errors.AssertionFailedWithDepthf(1, format, args...), InvariantViolation)
}

// NewDegenerateGeometryf returns a new DegenerateGeometry error.
func NewDegenerateGeometryf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), DegenerateGeometry)
}

// NewReadOnlyf returns a new ReadOnly error.
func NewReadOnlyf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ReadOnly)
}

// NewInvalidGeometryf returns a new InvalidGeometry error. Invalid
// geometries are also malformed input.
func NewInvalidGeometryf(format string, args ...interface{}) error {
	err := errors.Mark(errors.NewWithDepthf(1, format, args...), InvalidGeometry)
	return errors.Mark(err, MalformedInput)
}
