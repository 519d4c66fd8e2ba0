package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+FileExt)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), AttemptID: "attempt-1", Category: CategoryState},
		{Timestamp: time.Now(), AttemptID: "attempt-2", Category: CategoryPairing},
		{Timestamp: time.Now(), AttemptID: "attempt-3", Category: CategoryDisconnect},
	}

	path := createTestLogFile(t, events)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}

	// Verify order
	if read[0].AttemptID != "attempt-1" {
		t.Errorf("first event AttemptID = %q, want %q", read[0].AttemptID, "attempt-1")
	}
	if read[2].AttemptID != "attempt-3" {
		t.Errorf("last event AttemptID = %q, want %q", read[2].AttemptID, "attempt-3")
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty"+FileExt)
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing"+FileExt)); err == nil {
		t.Error("NewReader should fail for a missing file")
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, AttemptID: "a", Component: ComponentSession, Category: CategoryState, Account: "1@s.whatsapp.net"},
		{Timestamp: base.Add(time.Minute), AttemptID: "a", Component: ComponentPairing, Category: CategoryPairing},
		{Timestamp: base.Add(2 * time.Minute), AttemptID: "b", Component: ComponentConnection, Category: CategoryDisconnect},
		{Timestamp: base.Add(3 * time.Minute), AttemptID: "b", Component: ComponentCommand, Category: CategoryCommand, Account: "1@s.whatsapp.net"},
	}
	path := createTestLogFile(t, events)

	disconnect := CategoryDisconnect
	command := ComponentCommand
	start := base.Add(time.Minute)
	end := base.Add(3 * time.Minute)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"None", Filter{}, 4},
		{"AttemptID", Filter{AttemptID: "a"}, 2},
		{"Category", Filter{Category: &disconnect}, 1},
		{"Component", Filter{Component: &command}, 1},
		{"TimeRange", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"Account", Filter{Account: "1@s.whatsapp.net"}, 2},
		{"Combined", Filter{AttemptID: "b", Account: "1@s.whatsapp.net"}, 1},
		{"NoMatch", Filter{AttemptID: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer reader.Close()

			got, err := reader.All()
			if err != nil {
				t.Fatalf("All failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestReaderCorruptTail(t *testing.T) {
	path := createTestLogFile(t, []Event{{AttemptID: "ok"}})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte{0xbf, 0x01})
	f.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.All()
	if err == nil {
		t.Error("All should report the truncated event")
	}
	if len(events) != 1 {
		t.Errorf("got %d events before the corrupt tail, want 1", len(events))
	}
}
