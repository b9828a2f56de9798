// Package audit records what flatjail did to each application. Events are
// stored as JSON Lines (JSONL) files, one per application id.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EventType classifies an application event.
type EventType string

const (
	EventInstall         EventType = "install"
	EventRun             EventType = "run"
	EventExit            EventType = "exit"
	EventDegraded        EventType = "degraded"
	EventSetupFailed     EventType = "setup-failed"
	EventTeardownFailure EventType = "teardown-failure"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	App       string    `json:"app"`
	// Ref is the canonical reference the event is about, when there is one.
	Ref      string `json:"ref,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	Details  string `json:"details,omitempty"`
}

// Logger writes and reads application events.
// Events are stored in {stateDir}/apps/{app}.events.jsonl.
type Logger struct {
	stateDir string
}

// NewLogger creates a new audit logger rooted at stateDir.
func NewLogger(stateDir string) *Logger {
	return &Logger{stateDir: stateDir}
}

func (l *Logger) eventPath(app string) string {
	return filepath.Join(l.stateDir, "apps", app+".events.jsonl")
}

// Log appends an event to the application's log.
func (l *Logger) Log(event Event) error {
	if event.App == "" {
		return fmt.Errorf("audit event has no app")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	path := l.eventPath(event.App)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, app, details string) error {
	return l.Log(Event{
		Type:    eventType,
		App:     app,
		Details: details,
	})
}

// Events reads all events for an application in the order they were
// written. Malformed lines are skipped.
func (l *Logger) Events(app string) ([]Event, error) {
	f, err := os.Open(l.eventPath(app))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Tail returns the last n events for an application. n <= 0 returns all.
func (l *Logger) Tail(app string, n int) ([]Event, error) {
	events, err := l.Events(app)
	if err != nil || n <= 0 || len(events) <= n {
		return events, err
	}
	return events[len(events)-n:], nil
}

// Remove deletes the audit log for an application.
func (l *Logger) Remove(app string) error {
	if err := os.Remove(l.eventPath(app)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
