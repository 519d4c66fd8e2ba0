package whatsapp

import (
	"context"
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// slogLogger bridges whatsmeow's printf-style logger onto slog.
type slogLogger struct {
	log    *slog.Logger
	module string
}

// NewLogger returns a whatsmeow logger writing to l. A nil l discards.
// module is attached as the "module" attribute; sub-loggers append to it
// with a slash, e.g. "Client/Socket".
func NewLogger(l *slog.Logger, module string) waLog.Logger {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return &slogLogger{log: l, module: module}
}

func (s *slogLogger) Errorf(msg string, args ...any) { s.emit(slog.LevelError, msg, args) }
func (s *slogLogger) Warnf(msg string, args ...any)  { s.emit(slog.LevelWarn, msg, args) }
func (s *slogLogger) Infof(msg string, args ...any)  { s.emit(slog.LevelInfo, msg, args) }
func (s *slogLogger) Debugf(msg string, args ...any) { s.emit(slog.LevelDebug, msg, args) }

func (s *slogLogger) Sub(module string) waLog.Logger {
	name := module
	if s.module != "" {
		name = s.module + "/" + module
	}
	return &slogLogger{log: s.log, module: name}
}

func (s *slogLogger) emit(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !s.log.Enabled(ctx, level) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	s.log.Log(ctx, level, msg, slog.String("module", s.module))
}
