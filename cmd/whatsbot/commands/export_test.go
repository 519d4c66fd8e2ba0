package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/whatsbot/whatsbot-go/pkg/log"
)

// createTestLogFile writes events to a new log file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExt)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	delay := 5 * time.Second
	return []log.Event{
		{
			Timestamp: ts,
			AttemptID: "a1b2c3d4-0000-0000-0000-000000000001",
			Component: log.ComponentSession,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntitySession,
				OldState: "closed",
				NewState: "connecting",
			},
		},
		{
			Timestamp: ts.Add(time.Second),
			AttemptID: "a1b2c3d4-0000-0000-0000-000000000001",
			Component: log.ComponentCommand,
			Category:  log.CategoryCommand,
			Account:   "212612345678@s.whatsapp.net",
			Command: &log.CommandEvent{
				Direction: log.DirectionOut,
				Command:   "!ping",
				Chat:      "33612345678@s.whatsapp.net",
			},
		},
		{
			Timestamp: ts.Add(2 * time.Second),
			AttemptID: "a1b2c3d4-0000-0000-0000-000000000001",
			Component: log.ComponentConnection,
			Category:  log.CategoryDisconnect,
			Disconnect: &log.DisconnectEvent{
				Reason:      408,
				Class:       "transient",
				Reconnect:   true,
				Opened:      true,
				Delay:       &delay,
				NextAttempt: 2,
			},
		},
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunExport(path, "jsonl", "", &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var decoded log.Event
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if decoded.Command == nil || decoded.Command.Command != "!ping" {
		t.Errorf("expected !ping command, got %+v", decoded.Command)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out, nil); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(records))
	}
	if records[0][1] != "attempt_id" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if got := records[3][6]; got != "408 transient" {
		t.Errorf("expected disconnect detail, got %q", got)
	}
	if got := records[2][4]; got != "212612345678@s.whatsapp.net" {
		t.Errorf("expected account column, got %q", got)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	err := RunExport(path, "xml", "", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestExportMissingFile(t *testing.T) {
	err := RunExport(filepath.Join(t.TempDir(), "missing"+log.FileExt), "jsonl", "", &bytes.Buffer{})
	if err == nil {
		t.Error("expected error for missing file")
	}
}
