// Package commands implements the whatsbot log analysis commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/whatsbot/whatsbot-go/pkg/log"
)

// timestampLayout is used for all event timestamps in human-readable output.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Component *log.Component
	Category  *log.Category
	AttemptID string
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		AttemptID: f.AttemptID,
		Component: f.Component,
		Category:  f.Category,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [attempt:id] COMPONENT Type
	ts := event.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s [attempt:%s] %s %s\n", ts, shortenID(event.AttemptID), event.Component, typeLabel(event))

	if event.Account != "" {
		fmt.Fprintf(w, "  Account: %s\n", event.Account)
	}

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Pairing != nil:
		formatPairingDetails(w, event.Pairing)
	case event.Disconnect != nil:
		formatDisconnectDetails(w, event.Disconnect)
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.Credentials != nil:
		fmt.Fprintf(w, "  %s (registered: %t)\n", event.Credentials.Action, event.Credentials.Registered)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload carried by the event.
func typeLabel(event log.Event) string {
	switch {
	case event.StateChange != nil:
		return "State"
	case event.Pairing != nil:
		return "Pairing"
	case event.Disconnect != nil:
		return "Disconnect"
	case event.Command != nil:
		return "Command"
	case event.Credentials != nil:
		return "Credentials"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of an attempt ID, or "-".
func shortenID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatPairingDetails(w io.Writer, p *log.PairingEvent) {
	fmt.Fprintf(w, "  Stage: %s\n", p.Stage)
	if p.Phone != "" {
		fmt.Fprintf(w, "  Phone: %s\n", p.Phone)
	}
	if p.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", p.Error)
	}
}

func formatDisconnectDetails(w io.Writer, d *log.DisconnectEvent) {
	code := "-"
	if d.Reason != 0 {
		code = fmt.Sprintf("%d", d.Reason)
	}
	fmt.Fprintf(w, "  Reason: %s  Class: %s\n", code, d.Class)
	fmt.Fprintf(w, "  Opened: %t  Reconnect: %t", d.Opened, d.Reconnect)
	if d.WipeCredentials {
		fmt.Fprint(w, "  WipeCredentials: true")
	}
	fmt.Fprintln(w)
	if d.Delay != nil {
		fmt.Fprintf(w, "  Next attempt %d in %s\n", d.NextAttempt, formatDuration(*d.Delay))
	}
}

func formatCommandDetails(w io.Writer, c *log.CommandEvent) {
	chat := c.Chat
	if c.Group {
		chat += " (group)"
	}
	fmt.Fprintf(w, "  %s %s  Chat: %s\n", c.Direction, c.Command, chat)
	if c.Sender != "" {
		fmt.Fprintf(w, "  Sender: %s\n", c.Sender)
	}
	if c.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", c.Error)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseComponentFlag parses a component name (case-insensitive).
func ParseComponentFlag(s string) (log.Component, error) {
	switch strings.ToLower(s) {
	case "connection":
		return log.ComponentConnection, nil
	case "session":
		return log.ComponentSession, nil
	case "pairing":
		return log.ComponentPairing, nil
	case "command":
		return log.ComponentCommand, nil
	case "engine":
		return log.ComponentEngine, nil
	default:
		return 0, fmt.Errorf("invalid component: %s (must be connection, session, pairing, command, or engine)", s)
	}
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be state, pairing, disconnect, command, credentials, or error)", s)
	}
	return c, nil
}

// RunView writes every matching event in human-readable form.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
