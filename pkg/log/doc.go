// Package log provides structured session event logging for whatsbot.
//
// This package defines the Logger interface and Event types for capturing
// session-level events: connection state changes, pairing stages, disconnect
// verdicts, command replies and credential updates. It is separate from
// operational logging (slog); the event log is a complete machine-readable
// trace of what the bot decided and why.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLog = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLog, _ = log.NewFileLogger("/var/lib/whatsbot/events.wlog")
//
//	// Both: use MultiLogger
//	cfg.EventLog = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event carries the ID of the connection attempt it belongs to and one
// payload:
//   - State: connection manager and session state changes (StateChangeEvent)
//   - Pairing: pairing-code flow stages (PairingEvent)
//   - Disconnect: classifier verdicts and reconnect delays (DisconnectEvent)
//   - Command: received commands and replies (CommandEvent)
//   - Credentials: credential loads, saves and wipes (CredentialsEvent)
//   - Error: errors from any component (ErrorEventData)
//
// Phone numbers are masked before they reach the log.
//
// # File Format
//
// Log files use CBOR encoding with .wlog extension. The "whatsbot log"
// command provides viewing, filtering, statistics and export.
package log
