// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package exit holds the process exit codes of the lwgeom command.
package exit

import "os"

// Code represents an exit code.
type Code struct {
	code int
}

// String implements fmt.Stringer.
func (c Code) String() string {
	switch c.code {
	case 0:
		return "success"
	case 1:
		return "unspecified error"
	case 2:
		return "go panic"
	case 4:
		return "command-line flag error"
	case 5:
		return "invalid input"
	case 6:
		return "unsupported geometry"
	}
	return "unknown"
}

// WithCode terminates the process with the given code.
func WithCode(code Code) {
	os.Exit(code.code)
}

// Success (0) represents a normal process termination.
func Success() Code { return Code{0} }

// UnspecifiedError (1) indicates the process has terminated with an
// error condition that does not have a more specific code.
func UnspecifiedError() Code { return Code{1} }

// UnspecifiedGoPanic (2) indicates the process has terminated due to
// an uncaught Go panic or some other error in the Go runtime.
//
// The reporting of this exit code likely indicates a programming
// error.
func UnspecifiedGoPanic() Code { return Code{2} }

// CommandLineFlagError (4) indicates there was an error in the
// command-line parameters or in the configuration file.
func CommandLineFlagError() Code { return Code{4} }

// InvalidInput (5) indicates the input could not be parsed as a
// geometry.
func InvalidInput() Code { return Code{5} }

// UnsupportedGeometry (6) indicates the input was well formed but the
// requested operation does not support its kind or dimensionality.
func UnsupportedGeometry() Code { return Code{6} }
