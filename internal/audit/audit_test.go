package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogger_LogAndEvents(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Type: EventInstall, App: "org.gnome.Calculator", Ref: "app/org.gnome.Calculator/x86_64/stable", Details: "commit=abc123"},
		{Timestamp: now.Add(time.Second), Type: EventRun, App: "org.gnome.Calculator"},
		{Timestamp: now.Add(2 * time.Second), Type: EventDegraded, App: "org.gnome.Calculator", Details: "bridge-resources: system D-Bus not found"},
		{Timestamp: now.Add(3 * time.Second), Type: EventExit, App: "org.gnome.Calculator", ExitCode: 3},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events("org.gnome.Calculator")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.Ref != events[i].Ref {
			t.Errorf("event %d: ref = %q, want %q", i, e.Ref, events[i].Ref)
		}
		if e.ExitCode != events[i].ExitCode {
			t.Errorf("event %d: exit code = %d, want %d", i, e.ExitCode, events[i].ExitCode)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "apps", "org.gnome.Calculator.events.jsonl")); err != nil {
		t.Errorf("log file not where expected: %v", err)
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger := NewLogger(t.TempDir())

	result, err := logger.Events("org.example.Missing")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_LogEvent(t *testing.T) {
	logger := NewLogger(t.TempDir())

	if err := logger.LogEvent(EventTeardownFailure, "org.gnome.Calculator", "unmount /mnt/flatjail_org.gnome.Calculator: busy"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events("org.gnome.Calculator")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventTeardownFailure {
		t.Errorf("type = %q, want %q", e.Type, EventTeardownFailure)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_LogRequiresApp(t *testing.T) {
	logger := NewLogger(t.TempDir())
	if err := logger.Log(Event{Type: EventRun}); err == nil {
		t.Error("Log should reject an event without app")
	}
}

func TestLogger_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	logger.LogEvent(EventRun, "org.example.App", "")
	f, err := os.OpenFile(logger.eventPath("org.example.App"), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("{not json\n\n")
	f.Close()
	logger.LogEvent(EventExit, "org.example.App", "")

	events, err := logger.Events("org.example.App")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 || events[1].Type != EventExit {
		t.Errorf("events = %+v, want run and exit", events)
	}
}

func TestLogger_Tail(t *testing.T) {
	logger := NewLogger(t.TempDir())

	for _, typ := range []EventType{EventInstall, EventRun, EventExit, EventRun, EventExit} {
		logger.LogEvent(typ, "org.example.App", "")
	}

	tests := []struct {
		n    int
		want int
	}{
		{0, 5},
		{-1, 5},
		{2, 2},
		{10, 5},
	}
	for _, tt := range tests {
		events, err := logger.Tail("org.example.App", tt.n)
		if err != nil {
			t.Fatalf("Tail(%d) failed: %v", tt.n, err)
		}
		if len(events) != tt.want {
			t.Errorf("Tail(%d) returned %d events, want %d", tt.n, len(events), tt.want)
		}
	}

	last, _ := logger.Tail("org.example.App", 1)
	if last[0].Type != EventExit {
		t.Errorf("last event = %q, want %q", last[0].Type, EventExit)
	}
}

func TestLogger_Remove(t *testing.T) {
	logger := NewLogger(t.TempDir())

	logger.LogEvent(EventInstall, "org.example.App", "")

	if err := logger.Remove("org.example.App"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	events, err := logger.Events("org.example.App")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events after remove, want 0", len(events))
	}

	if err := logger.Remove("org.example.App"); err != nil {
		t.Errorf("Remove should not error for nonexistent: %v", err)
	}
}
