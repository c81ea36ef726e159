// Copyright 2020 The Cockroach Authors.
//
// Use of this software is governed by the Business Source License
// included in the file licenses/BSL.txt.
//
// As of the Change Date specified in that file, in accordance with
// the Business Source License, use of this software will be governed
// by the Apache License, Version 2.0, included in the file
// licenses/APL.txt.

// Package log is the leveled, context-aware logger used by the geometry
// packages and the command-line tool. Entries carry the logtags attached
// to the context and are formatted with redaction markers that are
// stripped unless redactable output was requested.
package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type loggingT struct {
	// verbosity is the V level enabling VEventf output.
	verbosity int32

	mu struct {
		sync.Mutex
		out          io.Writer
		minSeverity  Severity
		redactable   bool
		exitOverride struct {
			f         func(int)
			hideStack bool
		}
	}
}

var logging = func() *loggingT {
	l := &loggingT{}
	l.mu.out = os.Stderr
	l.mu.minSeverity = Severity_INFO
	return l
}()

// SetOutput redirects log entries to w and returns a function restoring
// the previous destination.
func SetOutput(w io.Writer) (restore func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	prev := logging.mu.out
	logging.mu.out = w
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		logging.mu.out = prev
	}
}

// SetMinSeverity drops entries below sev.
func SetMinSeverity(sev Severity) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.minSeverity = sev
}

// SetRedactable controls whether redaction markers are kept in the output.
func SetRedactable(redactable bool) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.redactable = redactable
}

// SetVerbosity sets the level up to which V returns true.
func SetVerbosity(level int32) {
	atomic.StoreInt32(&logging.verbosity, level)
}

// V returns whether verbose logging at the given level is enabled.
func V(level int32) bool {
	return atomic.LoadInt32(&logging.verbosity) >= level
}

type logEntry struct {
	sev     Severity
	time    time.Time
	file    string
	line    int
	tags    string
	message string
}

func makeEntry(sev Severity, depth int, tags, message string) logEntry {
	e := logEntry{sev: sev, time: time.Now(), tags: tags, message: message}
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		e.file, e.line = filepath.Base(file), line
	} else {
		e.file = "???"
	}
	return e
}

// format renders the entry in the crdb-v1 layout:
//
//	I201015 12:34:56.789012 file.go:123 [tags] message
func (e logEntry) format() []byte {
	var buf bytes.Buffer
	buf.WriteByte(e.sev.Letter())
	buf.WriteString(e.time.UTC().Format("060102 15:04:05.000000"))
	fmt.Fprintf(&buf, " %s:%d ", e.file, e.line)
	if e.tags != "" {
		buf.WriteString(e.tags)
		buf.WriteByte(' ')
	}
	buf.WriteString(e.message)
	if n := buf.Len(); n == 0 || buf.Bytes()[n-1] != '\n' {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (l *loggingT) outputEntry(e logEntry) {
	l.mu.Lock()
	if e.sev < l.mu.minSeverity && e.sev != Severity_FATAL {
		l.mu.Unlock()
		return
	}
	out := l.mu.out
	exitFn := l.mu.exitOverride.f
	hideStack := l.mu.exitOverride.hideStack
	if out != nil {
		_, _ = out.Write(e.format())
	}
	l.mu.Unlock()

	if e.sev == Severity_FATAL {
		if !hideStack && out != nil {
			_, _ = out.Write(stacks())
		}
		if exitFn != nil {
			exitFn(255)
			return
		}
		os.Exit(255)
	}
}

func stacks() []byte {
	buf := make([]byte, 64<<10)
	return buf[:runtime.Stack(buf, false)]
}
