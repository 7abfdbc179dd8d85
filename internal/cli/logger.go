package cli

import "go.uber.org/zap"

// debugLogger wraps zap for verbose diagnostics with receiver context.
type debugLogger struct {
	sugared *zap.SugaredLogger
}

func newDebugLogger(globals *Globals) *debugLogger {
	if globals == nil || !globals.Verbose {
		return &debugLogger{}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	logger, _ := cfg.Build()
	return &debugLogger{sugared: logger.Sugar()}
}

func (l *debugLogger) Debug(format string, args ...interface{}) {
	if l == nil || l.sugared == nil {
		return
	}
	l.sugared.Debugf(format, args...)
}

// DebugEvent logs with event context attached.
func (l *debugLogger) DebugEvent(eventType, sessionID string, format string, args ...interface{}) {
	if l == nil || l.sugared == nil {
		return
	}
	l.sugared.With("hook_event_name", eventType, "session_id", sessionID).Debugf(format, args...)
}
