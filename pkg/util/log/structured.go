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

import (
	"context"
	"strings"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	var buf strings.Builder
	formatTags(ctx, true /* brackets */, &buf)
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
	buf.WriteString(renderArgs(false /* redactable */, format, args...))
	return buf.String()
}

// formatTags writes the context tags as "[k1=v1,k2]" into buf. It writes
// nothing when the context has no tags.
func formatTags(ctx context.Context, brackets bool, buf *strings.Builder) bool {
	tags := logtags.FromContext(ctx)
	if tags == nil || len(tags.Get()) == 0 {
		return false
	}
	if brackets {
		buf.WriteByte('[')
	}
	for i, t := range tags.Get() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(t.Key())
		if v := t.ValueStr(); v != "" {
			buf.WriteByte('=')
			buf.WriteString(v)
		}
	}
	if brackets {
		buf.WriteByte(']')
	}
	return true
}

// renderArgs formats the arguments, keeping redaction markers around
// unsafe values only when redactable is set.
func renderArgs(redactable bool, format string, args ...interface{}) string {
	var s redact.RedactableString
	if len(args) == 0 {
		s = redact.Sprint(redact.Safe(format))
	} else {
		s = redact.Sprintf(format, args...)
	}
	if redactable {
		return string(s)
	}
	return s.StripMarkers()
}

// addStructured creates a log entry and writes it to the output.
func addStructured(
	ctx context.Context, sev Severity, depth int, format string, args []interface{},
) {
	logging.mu.Lock()
	redactable := logging.mu.redactable
	logging.mu.Unlock()

	var tags strings.Builder
	formatTags(ctx, true /* brackets */, &tags)
	entry := makeEntry(sev, depth+1, tags.String(), renderArgs(redactable, format, args...))
	logging.outputEntry(entry)
}
