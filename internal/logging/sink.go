// pattern: Imperative Shell

package logging

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

var errSinkClosed = errors.New("write to closed record sink")

// LogEntry is one record read back from the JSON encoder.
type LogEntry struct {
	Timestamp time.Time
	Level     string // DEBUG, INFO, WARN, ERROR
	Scope     string // logger name, dot separated (e.g. "runner")
	Message   string
	Fields    map[string]any
}

// InScope reports whether the entry was logged under scope or one of its
// dotted children. An empty scope matches everything.
func (e LogEntry) InScope(scope string) bool {
	return scope == "" || e.Scope == scope || strings.HasPrefix(e.Scope, scope+".")
}

// levelName maps an encoded level to its capitalised zap name, INFO when
// unrecognised.
func levelName(encoded string) string {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(encoded)); err != nil {
		return zapcore.InfoLevel.CapitalString()
	}
	return lvl.CapitalString()
}

// RecordSink is a zapcore.WriteSyncer that decodes each JSON record into a
// LogEntry and keeps the newest capacity entries in memory.
type RecordSink struct {
	mu       sync.Mutex
	entries  []LogEntry
	capacity int
	dropped  int
	closed   bool
}

func NewRecordSink(capacity int) *RecordSink {
	if capacity < 1 {
		capacity = 1
	}
	return &RecordSink{capacity: capacity}
}

// Write decodes one encoded record. Records that are not JSON are skipped.
func (s *RecordSink) Write(p []byte) (int, error) {
	entry, err := decodeEntry(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, errSinkClosed
	}
	if err != nil {
		return len(p), nil
	}
	if len(s.entries) == s.capacity {
		s.entries = s.entries[1:]
		s.dropped++
	}
	s.entries = append(s.entries, entry)
	return len(p), nil
}

func (s *RecordSink) Sync() error {
	return nil
}

// Close rejects further writes. Entries already recorded stay readable.
func (s *RecordSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Take returns the recorded entries oldest first and clears the sink.
func (s *RecordSink) Take() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.entries
	s.entries = nil
	return out
}

// Dropped is how many entries were evicted to stay within capacity.
func (s *RecordSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

type encodedRecord struct {
	Level  string  `json:"level"`
	TS     float64 `json:"ts"`
	Logger string  `json:"logger"`
	Msg    string  `json:"msg"`
}

// decodeEntry turns a record from the JSON encoder built by newEncoderConfig
// into a LogEntry. Everything besides the standard keys lands in Fields.
func decodeEntry(data []byte) (LogEntry, error) {
	var head encodedRecord
	if err := json.Unmarshal(data, &head); err != nil {
		return LogEntry{}, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return LogEntry{}, err
	}
	for _, key := range []string{"level", "ts", "logger", "msg", "caller", "stacktrace"} {
		delete(fields, key)
	}

	entry := LogEntry{
		Level:     levelName(head.Level),
		Scope:     head.Logger,
		Message:   head.Msg,
		Fields:    fields,
		Timestamp: time.Now(),
	}
	if entry.Scope == "" {
		entry.Scope = "app"
	}
	if head.TS > 0 {
		sec := int64(head.TS)
		entry.Timestamp = time.Unix(sec, int64((head.TS-float64(sec))*1e9))
	}
	return entry, nil
}
