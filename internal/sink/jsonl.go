package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tkingovr/logbridge/api"
)

// JSONLSink appends records as JSON lines to <dir>/<YYYY-MM-DD>.jsonl.
// The file is chosen by the record timestamp, so a new file starts when the
// date changes.
type JSONLSink struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// NewJSONLSink creates a sink writing to dir, creating it if needed.
func NewJSONLSink(dir string) (*JSONLSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &JSONLSink{dir: dir}, nil
}

func (s *JSONLSink) Emit(_ context.Context, record *api.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := s.openDay(record.Timestamp.Format(time.DateOnly)); err != nil {
		return err
	}

	// Encode terminates each record with a newline
	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("writing log record: %w", err)
	}
	return s.buf.Flush()
}

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeFile()
}

func (s *JSONLSink) openDay(day string) error {
	if s.file != nil && day == s.day {
		return nil
	}
	if err := s.closeFile(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, day+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	s.file = f
	s.buf = bufio.NewWriter(f)
	s.enc = json.NewEncoder(s.buf)
	s.enc.SetEscapeHTML(false)
	s.day = day
	return nil
}

func (s *JSONLSink) closeFile() error {
	if s.file == nil {
		return nil
	}
	flushErr := s.buf.Flush()
	closeErr := s.file.Close()
	s.file, s.buf, s.enc, s.day = nil, nil, nil, ""
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
