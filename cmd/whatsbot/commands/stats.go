package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/whatsbot/whatsbot-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents         int
	EventsByComponent   map[log.Component]int
	EventsByCategory    map[log.Category]int
	Attempts            map[string]*AttemptStats
	DisconnectsByReason map[int]int
	Commands            map[string]int
	PairingCodes        int
	Errors              int
	TimeRange           struct {
		Start time.Time
		End   time.Time
	}
}

// AttemptStats holds statistics for a single connection attempt.
type AttemptStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Account   string
	Opened    bool
	Reason    int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

// CollectStats reads the whole log file and aggregates it.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByComponent:   make(map[log.Component]int),
		EventsByCategory:    make(map[log.Category]int),
		Attempts:            make(map[string]*AttemptStats),
		DisconnectsByReason: make(map[int]int),
		Commands:            make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByComponent[event.Component]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		var attempt *AttemptStats
		if event.AttemptID != "" {
			attempt = stats.Attempts[event.AttemptID]
			if attempt == nil {
				attempt = &AttemptStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
				stats.Attempts[event.AttemptID] = attempt
			}
			attempt.Events++
			if event.Timestamp.After(attempt.LastSeen) {
				attempt.LastSeen = event.Timestamp
			}
			if event.Account != "" && attempt.Account == "" {
				attempt.Account = event.Account
			}
		}

		switch {
		case event.Disconnect != nil:
			stats.DisconnectsByReason[event.Disconnect.Reason]++
			if attempt != nil {
				attempt.Opened = attempt.Opened || event.Disconnect.Opened
				attempt.Reason = event.Disconnect.Reason
			}
		case event.Command != nil && event.Command.Direction == log.DirectionOut && event.Command.Error == "":
			stats.Commands[event.Command.Command]++
		case event.Pairing != nil && event.Pairing.Stage == log.PairingCodeIssued:
			stats.PairingCodes++
		case event.Error != nil:
			stats.Errors++
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== whatsbot Session Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Component:")
	for c := log.ComponentConnection; c <= log.ComponentEngine; c++ {
		if count := stats.EventsByComponent[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryState; c <= log.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.DisconnectsByReason) > 0 {
		reasons := make([]int, 0, len(stats.DisconnectsByReason))
		for r := range stats.DisconnectsByReason {
			reasons = append(reasons, r)
		}
		sort.Ints(reasons)

		fmt.Fprintln(w, "Disconnects by Reason:")
		for _, r := range reasons {
			label := fmt.Sprintf("%d", r)
			if r == 0 {
				label = "-"
			}
			fmt.Fprintf(w, "  %-12s %d\n", label+":", stats.DisconnectsByReason[r])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Commands) > 0 {
		names := make([]string, 0, len(stats.Commands))
		for n := range stats.Commands {
			names = append(names, n)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "Commands Answered:")
		for _, n := range names {
			fmt.Fprintf(w, "  %-12s %d\n", n+":", stats.Commands[n])
		}
		fmt.Fprintln(w)
	}

	if stats.PairingCodes > 0 {
		fmt.Fprintf(w, "Pairing Codes: %d\n\n", stats.PairingCodes)
	}

	fmt.Fprintf(w, "Attempts: %d\n", len(stats.Attempts))
	if len(stats.Attempts) > 0 {
		type attemptInfo struct {
			id    string
			stats *AttemptStats
		}
		attempts := make([]attemptInfo, 0, len(stats.Attempts))
		for id, as := range stats.Attempts {
			attempts = append(attempts, attemptInfo{id, as})
		}
		sort.Slice(attempts, func(i, j int) bool {
			return attempts[i].stats.FirstSeen.Before(attempts[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, a := range attempts {
			duration := a.stats.LastSeen.Sub(a.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s", shortenID(a.id), a.stats.Events, duration)
			if a.stats.Opened {
				fmt.Fprint(w, ", opened")
			}
			if a.stats.Reason != 0 {
				fmt.Fprintf(w, ", closed %d", a.stats.Reason)
			}
			fmt.Fprintln(w)
			if a.stats.Account != "" {
				fmt.Fprintf(w, "           Account: %s\n", a.stats.Account)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
