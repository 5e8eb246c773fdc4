// This file is part of Poolprep
// Copyright (c) 2026 The Poolprep Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package logging provides the session logger. Every reported line is
// mirrored into an append-only session log file named by start time. The
// file is an output-only sink; it is never read back.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

const timeFormat = "2006-01-02 15:04:05"

// Logger writes tagged lines to the console and mirrors them into the
// session log file. It is safe for concurrent use; entries are whole
// lines appended under a single lock.
type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	now     func() time.Time
}

// New creates a session logger writing console output to console and
// mirroring to an append-only log file under logDir. The file is named
// by the session start time.
func New(console io.Writer, logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, fmt.Errorf("unable to create log directory %v; %w", logDir, err)
	}
	name := fmt.Sprintf("%v-%v.log", "poolprep", time.Now().Format("20060102-150405"))
	file, err := os.OpenFile(
		filepath.Join(logDir, name),
		os.O_WRONLY|os.O_CREATE|os.O_APPEND,
		0o600,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to open session log file; %w", err)
	}
	return &Logger{console: console, file: file, now: time.Now}, nil
}

// NewWithFile creates a logger over arbitrary writers. Used by tests.
func NewWithFile(console io.Writer, file *os.File) *Logger {
	return &Logger{console: console, file: file, now: time.Now}
}

// Path returns the session log file path.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Close closes the session log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) appendFile(tag, line string) {
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "%v %-7v %v\n", l.now().Format(timeFormat), tag, line)
}

func (l *Logger) emit(tag, colored, format string, a ...interface{}) {
	line := fmt.Sprintf(format, a...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		if colored == "" {
			fmt.Fprintf(l.console, "%v\n", line)
		} else {
			fmt.Fprintf(l.console, "%v %v\n", colored, line)
		}
	}
	l.appendFile(tag, line)
}

// Infof reports an informational line.
func (l *Logger) Infof(format string, a ...interface{}) {
	l.emit("INFO", "", format, a...)
}

// Warnf reports a warning line.
func (l *Logger) Warnf(format string, a ...interface{}) {
	l.emit("WARNING", color.HiYellowString("WARNING"), format, a...)
}

// Errorf reports an error line.
func (l *Logger) Errorf(format string, a ...interface{}) {
	l.emit("ERROR", color.HiRedString("ERROR"), format, a...)
}

// FileOnly appends a line to the session log without touching the
// console. Used while an interactive progress view owns the terminal.
func (l *Logger) FileOnly(format string, a ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendFile("INFO", fmt.Sprintf(format, a...))
}

// FileWriter returns a writer that appends raw subprocess output to the
// session log file. Writes take the logger lock so lines from the main
// control flow and the progress sampler never interleave mid-line.
func (l *Logger) FileWriter() io.Writer {
	return &fileWriter{logger: l}
}

type fileWriter struct {
	logger *Logger
}

func (w *fileWriter) Write(p []byte) (int, error) {
	w.logger.mu.Lock()
	defer w.logger.mu.Unlock()
	if w.logger.file == nil {
		return len(p), nil
	}
	return w.logger.file.Write(p)
}
