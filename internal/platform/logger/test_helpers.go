package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
)

// TestLogBuffer is a goroutine-safe buffer for capturing JSON log output in tests.
type TestLogBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write implements io.Writer.
func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns the buffer contents.
func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries parses every JSON log line written so far.
func (b *TestLogBuffer) Entries() ([]map[string]any, error) {
	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader([]byte(b.String())))
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// NewTestLogger returns a debug-level JSON logger writing into a fresh buffer.
func NewTestLogger() (*slog.Logger, *TestLogBuffer) {
	buf := &TestLogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
