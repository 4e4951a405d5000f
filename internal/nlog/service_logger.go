/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package nlog

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// Logger is something that can print, using Logf, a format string
type Logger interface {
	Logf(format string, v ...any)
}

// Discard is a Logger that drops everything. Handy for tests and for components started without logging.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Logf(string, ...any) {}

// level is the jww level an entry is written at
type level uint8

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

// SubsystemLogger is a logger that handles only one file out of all that are opened by its ServiceLogger
type SubsystemLogger struct {
	name   string
	logger *ServiceLogger
}

// Logf writes at INFO level
func (s *SubsystemLogger) Logf(format string, v ...any) {
	s.logger.enqueue(s.name, levelInfo, format, v...)
}

// Debugf writes at DEBUG level
func (s *SubsystemLogger) Debugf(format string, v ...any) {
	s.logger.enqueue(s.name, levelDebug, format, v...)
}

// Warnf writes at WARN level, which also reaches stdout
func (s *SubsystemLogger) Warnf(format string, v ...any) {
	s.logger.enqueue(s.name, levelWarn, format, v...)
}

// Errorf writes at ERROR level, which also reaches stdout
func (s *SubsystemLogger) Errorf(format string, v ...any) {
	s.logger.enqueue(s.name, levelError, format, v...)
}

// logEntry is sent onto the log channel instead of writing to the files directly
type logEntry struct {
	subsystem string
	lvl       level
	formatted string
}

// ServiceLogger writes each subsystem (http, vaca, payments, ...) to its own file under dir.
// Every subsystem owns a jww Notepad, so the file gets everything at or above the configured threshold
// while stdout only gets warnings and errors.
// It's safe to share amongst goroutines since it has an internal lock
type ServiceLogger struct {
	dir       string
	threshold jww.Threshold
	stdout    io.Writer

	fileMapper map[string]*os.File     // Maps a subsystem to its OS file (used only to be able to close it later)
	padMapper  map[string]*jww.Notepad // Maps a subsystem to its notepad

	lock    sync.RWMutex
	enabled bool

	inbox    chan logEntry
	done     chan struct{} // Closed once Run has returned
	doneOnce sync.Once
}

// NewServiceLogger creates the log directory and returns a logger writing there.
// threshold is one of trace, debug, info, warn, error (see ParseThreshold).
func NewServiceLogger(dir string, logging bool, threshold string) (*ServiceLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &ServiceLogger{
		dir:        dir,
		threshold:  ParseThreshold(threshold),
		stdout:     os.Stdout,
		fileMapper: make(map[string]*os.File),
		padMapper:  make(map[string]*jww.Notepad),
		enabled:    logging,
		inbox:      make(chan logEntry, 600),
		done:       make(chan struct{}),
	}, nil
}

// ParseThreshold maps a textual level to a jww threshold, INFO when unknown
func ParseThreshold(s string) jww.Threshold {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return jww.LevelTrace
	case "debug":
		return jww.LevelDebug
	case "warn", "warning":
		return jww.LevelWarn
	case "error":
		return jww.LevelError
	default:
		return jww.LevelInfo
	}
}

// RegisterSubsystem opens (truncating) <dir>/<name>.log and returns the logger bound to it.
func (n *ServiceLogger) RegisterSubsystem(name string) (*SubsystemLogger, error) {
	file, err := os.OpenFile(filepath.Join(n.dir, name+".log"), os.O_WRONLY|os.O_APPEND|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, err
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	if old, ok := n.fileMapper[name]; ok {
		old.Close()
	}
	n.padMapper[name] = jww.NewNotepad(jww.LevelWarn, n.threshold, n.stdout, file, fmt.Sprintf("[%s]", name), log.Ldate|log.Ltime)
	n.fileMapper[name] = file
	return &SubsystemLogger{name, n}, nil
}

// MustSubsystem is RegisterSubsystem for bootstrap code: when the file cannot be opened, Discard is returned instead.
func (n *ServiceLogger) MustSubsystem(name string) Logger {
	l, err := n.RegisterSubsystem(name)
	if err != nil {
		return Discard
	}
	return l
}

// EnableLogging enables the logging done by this logger
func (n *ServiceLogger) EnableLogging() {
	n.lock.Lock()
	n.enabled = true
	n.lock.Unlock()
}

// DisableLogging disables the logging done by this logger
func (n *ServiceLogger) DisableLogging() {
	n.lock.Lock()
	n.enabled = false
	n.lock.Unlock()
}

// enqueue drops the entry once the logger has stopped, instead of blocking on a full inbox
func (n *ServiceLogger) enqueue(subsystem string, lvl level, format string, v ...any) {
	select {
	case n.inbox <- logEntry{subsystem, lvl, fmt.Sprintf(format, v...)}:
	case <-n.done:
	}
}

// Done is closed when Run returns, after the last entries were written and the files closed
func (n *ServiceLogger) Done() <-chan struct{} {
	return n.done
}

// Run waits either on the log channel or ctx.Done()
// When ctx.Done(), the pending entries are flushed and the files closed
func (n *ServiceLogger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			n.drain()
			n.CloseAll()
			n.doneOnce.Do(func() { close(n.done) })
			return
		case msg := <-n.inbox:
			n.actualWrite(msg)
		}
	}
}

func (n *ServiceLogger) drain() {
	for {
		select {
		case msg := <-n.inbox:
			n.actualWrite(msg)
		default:
			return
		}
	}
}

// actualWrite writes the entry on the notepad of its subsystem
func (n *ServiceLogger) actualWrite(entry logEntry) error {
	n.lock.RLock()
	enabled := n.enabled
	pad, ok := n.padMapper[entry.subsystem]
	n.lock.RUnlock()

	if !ok {
		return fmt.Errorf("Logger is not setup for this subsystem")
	}
	if !enabled {
		return nil
	}

	switch entry.lvl {
	case levelDebug:
		pad.DEBUG.Println(entry.formatted)
	case levelWarn:
		pad.WARN.Println(entry.formatted)
	case levelError:
		pad.ERROR.Println(entry.formatted)
	default:
		pad.INFO.Println(entry.formatted)
	}
	return nil
}

// CloseAll closes all the open files that the subsystems are using
func (n *ServiceLogger) CloseAll() {
	n.lock.Lock()
	defer n.lock.Unlock()

	for _, file := range n.fileMapper {
		file.Sync()
		file.Close()
	}
	clear(n.fileMapper)
	clear(n.padMapper)
}
