// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

package log

// Severity is the importance of a log entry.
type Severity int32

// Severities, in increasing order of importance.
const (
	Severity_UNKNOWN Severity = iota
	Severity_INFO
	Severity_WARNING
	Severity_ERROR
	Severity_FATAL
)

var severityNames = [...]string{
	Severity_UNKNOWN: "UNKNOWN",
	Severity_INFO:    "INFO",
	Severity_WARNING: "WARNING",
	Severity_ERROR:   "ERROR",
	Severity_FATAL:   "FATAL",
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// Letter returns the one-character prefix of entries of this severity.
func (s Severity) Letter() byte {
	return s.String()[0]
}

// SeverityByName returns the severity with the given name.
func SeverityByName(name string) (Severity, bool) {
	for i, n := range severityNames {
		if n == name && Severity(i) != Severity_UNKNOWN {
			return Severity(i), true
		}
	}
	return Severity_UNKNOWN, false
}
