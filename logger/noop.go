package logger

// NoopLogger discards every record. Useful in tests and benchmarks.
type NoopLogger struct {
	level Level
}

var _ Logger = (*NoopLogger)(nil)

// NewNoop creates a Logger that discards everything.
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(string, ...any) {}
func (l *NoopLogger) Info(string, ...any)  {}
func (l *NoopLogger) Warn(string, ...any)  {}
func (l *NoopLogger) Error(string, ...any) {}
func (l *NoopLogger) Fatal(string, ...any) {}

func (l *NoopLogger) With(...any) Logger { return l }

func (l *NoopLogger) Level() Level { return l.level }

func (l *NoopLogger) SetLevel(level Level) { l.level = level }
