// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the size at which the log rotates (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// Event types.
const (
	EventLogin       = "LOGIN"
	EventLogout      = "LOGOUT"
	EventUpdateReady = "UPDATE_READY"
	EventReload      = "UPDATE_RELOAD"
)

// ErrClosed is returned by Log after Close.
var ErrClosed = errors.New("audit log closed")

// DefaultPath returns ~/.smartfix/audit.log.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".smartfix", "audit.log")
}

// =============================================================================
// EVENT
// =============================================================================

// Event is one audit record, written as a single JSON line.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Tab       string            `json:"tab,omitempty"`
	User      string            `json:"user,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// =============================================================================
// REDACTION
// =============================================================================

// Redactor replaces sensitive data in a string.
type Redactor interface {
	Redact(input string) string
	Name() string
}

// PatternRedactor redacts text matching a regex.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

// NewPatternRedactor creates a pattern-based redactor.
func NewPatternRedactor(name string, pattern *regexp.Regexp, replace string) *PatternRedactor {
	return &PatternRedactor{name: name, pattern: pattern, replace: replace}
}

// Redact replaces every match.
func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

// Name returns the redactor name.
func (r *PatternRedactor) Name() string {
	return r.name
}

var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"Bearer", regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{"JWT", regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{"Password", regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*\S+`), "[PASSWORD_REDACTED]"},
	{"Token", regexp.MustCompile(`(?i)"?token"?\s*[=:]\s*"?[^\s",}]+"?`), "token=[TOKEN_REDACTED]"},
}

func defaultRedactors() []Redactor {
	out := make([]Redactor, 0, len(secretPatterns))
	for _, sp := range secretPatterns {
		out = append(out, NewPatternRedactor(sp.name, sp.pattern, sp.replace))
	}
	return out
}

// RedactSecrets applies the built-in redactors.
func RedactSecrets(input string) string {
	for _, r := range defaultRedactors() {
		input = r.Redact(input)
	}
	return input
}

// =============================================================================
// LOGGER
// =============================================================================

// Config configures a Logger.
type Config struct {
	Path string
	// MaxSize in bytes before rotation; 0 selects DefaultMaxFileSize,
	// a negative value disables rotation.
	MaxSize int64
	// Tab is stamped on every event.
	Tab string
}

// Logger appends audit events to a JSON-lines file. A nil *Logger or one
// returned by Disabled accepts every call and writes nothing.
type Logger struct {
	mu        sync.Mutex
	path      string
	file      *os.File
	maxSize   int64
	tab       string
	redactors []Redactor
	now       func() time.Time

	lastFailure error
}

// Open creates the directory and opens the log for appending.
func Open(cfg Config) (*Logger, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := openLogFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Logger{
		path:      path,
		file:      file,
		maxSize:   maxSize,
		tab:       cfg.Tab,
		redactors: defaultRedactors(),
		now:       time.Now,
	}, nil
}

// Disabled returns a logger that drops everything.
func Disabled() *Logger {
	return nil
}

// Log redacts and writes event. Timestamp and Tab are filled when empty.
func (l *Logger) Log(event Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	if event.Tab == "" {
		event.Tab = l.tab
	}
	event.Error = l.redactLocked(event.Error)
	if event.Metadata != nil {
		md := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			md[k] = l.redactLocked(v)
		}
		event.Metadata = md
	}

	if err := l.checkRotationLocked(); err != nil {
		return l.failLocked(err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return l.failLocked(fmt.Errorf("encode audit event: %w", err))
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return l.failLocked(fmt.Errorf("failed to write audit log: %w", err))
	}

	l.lastFailure = nil
	return nil
}

// Record implements the session event recorder. Failures are reported on
// the diagnostic log only; a broken audit file never blocks a logout.
func (l *Logger) Record(eventType, user string, fields map[string]string) {
	if err := l.Log(Event{EventType: eventType, User: user, Success: true, Metadata: fields}); err != nil {
		log.Printf("AUDIT_WRITE_FAILED | event=%s err=%v", eventType, err)
	}
}

// LogLogin records a login attempt.
func (l *Logger) LogLogin(user string, loginErr error) error {
	ev := Event{EventType: EventLogin, User: user, Success: loginErr == nil}
	if loginErr != nil {
		ev.Error = loginErr.Error()
	}
	return l.Log(ev)
}

// LogLogout records an explicit logout.
func (l *Logger) LogLogout(user string) error {
	return l.Log(Event{EventType: EventLogout, User: user, Success: true})
}

// LogUpdateReady records that a new build was detected.
func (l *Logger) LogUpdateReady(path string, modTime time.Time) error {
	return l.Log(Event{EventType: EventUpdateReady, Success: true, Metadata: map[string]string{
		"path":    path,
		"modtime": modTime.Format(time.RFC3339),
	}})
}

// LogReload records a reload into a new build; err is set when exec failed.
func (l *Logger) LogReload(path string, reloadErr error) error {
	ev := Event{EventType: EventReload, Success: reloadErr == nil, Metadata: map[string]string{"path": path}}
	if reloadErr != nil {
		ev.Error = reloadErr.Error()
	}
	return l.Log(ev)
}

// Path returns the log file path, or "" for a disabled logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// LastFailure returns the most recent write error since the last success.
func (l *Logger) LastFailure() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastFailure
}

// Close flushes and closes the file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	syncErr := l.file.Sync()
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	return syncErr
}

func (l *Logger) failLocked(err error) error {
	l.lastFailure = err
	return err
}

func (l *Logger) redactLocked(s string) string {
	if s == "" {
		return s
	}
	for _, r := range l.redactors {
		s = r.Redact(s)
	}
	return s
}

// =============================================================================
// ROTATION
// =============================================================================

// checkRotationLocked moves a full log to <path>.1, replacing any previous one.
func (l *Logger) checkRotationLocked() error {
	if l.maxSize <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() < l.maxSize {
		return nil
	}

	// A failed reopen leaves the logger closed.
	closeErr := l.file.Close()
	l.file = nil
	if closeErr != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", closeErr)
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		file, openErr := openLogFile(l.path)
		if openErr != nil {
			return fmt.Errorf("failed to rotate audit log: %w (reopen: %v)", err, openErr)
		}
		l.file = file
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}
	file, err := openLogFile(l.path)
	if err != nil {
		return fmt.Errorf("failed to create new audit log after rotation: %w", err)
	}
	l.file = file
	return nil
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}

// =============================================================================
// READING
// =============================================================================

// ReadRecent returns up to n of the newest events in path, oldest first.
// Lines that do not parse are skipped. A missing file yields no events.
func ReadRecent(path string, n int) ([]Event, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		var ev Event
		if json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		events = append(events, ev)
		if n > 0 && len(events) > n {
			events = events[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return events, fmt.Errorf("read audit log: %w", err)
	}
	return events, nil
}
