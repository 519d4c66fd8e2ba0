package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes session events to an slog.Logger.
// Useful for development when you want to see session events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("attempt_id", event.AttemptID),
		slog.String("component", event.Component.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Account != "" {
		attrs = append(attrs, slog.String("account", event.Account))
	}

	// Add type-specific attributes
	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Pairing != nil:
		attrs = append(attrs, slog.String("stage", event.Pairing.Stage.String()))
		if event.Pairing.Phone != "" {
			attrs = append(attrs, slog.String("phone", event.Pairing.Phone))
		}
		if event.Pairing.Error != "" {
			attrs = append(attrs, slog.String("error_msg", event.Pairing.Error))
		}
	case event.Disconnect != nil:
		attrs = append(attrs,
			slog.Int("reason", event.Disconnect.Reason),
			slog.String("class", event.Disconnect.Class),
			slog.Bool("reconnect", event.Disconnect.Reconnect),
		)
		if event.Disconnect.WipeCredentials {
			attrs = append(attrs, slog.Bool("wipe_credentials", true))
		}
		if event.Disconnect.Delay != nil {
			attrs = append(attrs,
				slog.Duration("delay", *event.Disconnect.Delay),
				slog.Int("next_attempt", event.Disconnect.NextAttempt),
			)
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("direction", event.Command.Direction.String()),
			slog.String("command", event.Command.Command),
			slog.String("chat", event.Command.Chat),
			slog.Bool("group", event.Command.Group),
		)
		if event.Command.Error != "" {
			attrs = append(attrs, slog.String("error_msg", event.Command.Error))
		}
	case event.Credentials != nil:
		attrs = append(attrs,
			slog.String("action", event.Credentials.Action.String()),
			slog.Bool("registered", event.Credentials.Registered),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "session", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
