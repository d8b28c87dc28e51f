// pattern: Imperative Shell

package logging

import (
	"log/slog"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NopLogger returns a logger that discards all output.
// Use in tests or when logging is not configured.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{
		slog:  nil, // nil slog means all logging is no-op
		zap:   nil,
		scope: "",
	}
}

// Nop returns a LoggerProvider whose loggers discard everything.
func Nop() LoggerProvider {
	return nopProvider{}
}

type nopProvider struct{}

func (nopProvider) For(string) *ScopedLogger {
	return NopLogger()
}

// TestLogManager provides a LoggerProvider suitable for tests.
// Records are kept in memory only so tests can assert on them.
type TestLogManager struct {
	sink    *RecordSink
	baseZap *zap.Logger
	loggers map[string]*ScopedLogger
	mu      sync.RWMutex
}

// NewTestLogManager creates a logger provider keeping the newest capacity records.
func NewTestLogManager(capacity int) *TestLogManager {
	sink := NewRecordSink(capacity)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(newEncoderConfig()),
		zapcore.AddSync(sink),
		zapcore.DebugLevel,
	)

	return &TestLogManager{
		sink:    sink,
		baseZap: zap.New(core),
		loggers: make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
// Named For() to match the production Manager API.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.RLock()
	if logger, ok := m.loggers[scope]; ok {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if logger, ok := m.loggers[scope]; ok {
		return logger
	}

	zapLogger := m.baseZap.Named(scope)
	slogHandler := &zapSlogHandler{
		zap:   zapLogger,
		level: zapcore.DebugLevel,
	}

	logger := &ScopedLogger{
		slog:  slog.New(slogHandler),
		zap:   zapLogger,
		scope: scope,
	}

	m.loggers[scope] = logger
	return logger
}

// Close stops recording.
func (m *TestLogManager) Close() error {
	return m.sink.Close()
}

// Drain returns every entry recorded since the last Drain, oldest first.
func (m *TestLogManager) Drain() []LogEntry {
	return m.sink.Take()
}

// DrainScope is Drain filtered to entries logged under scope or its children.
func (m *TestLogManager) DrainScope(scope string) []LogEntry {
	var out []LogEntry
	for _, entry := range m.Drain() {
		if entry.InScope(scope) {
			out = append(out, entry)
		}
	}
	return out
}
