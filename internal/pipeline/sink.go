package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/seg-flt/hdrscan/internal/assembler"
)

// Sink receives chunk records. Implementations must be safe for concurrent
// writers; the pipeline serializes nothing on its side.
type Sink interface {
	Write(rec assembler.Record) error
	Close() error
}

// JSONLSink writes one JSON record per line. A mutex serializes writers so
// parallel file workers can share it.
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink wraps an open writer. The sink does not close it.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// NewFileSink creates or truncates path and writes records to it.
func NewFileSink(path string) (*JSONLSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return &JSONLSink{enc: json.NewEncoder(f), closer: f}, nil
}

func (s *JSONLSink) Write(rec assembler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *JSONLSink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// CollectSink buffers records in memory, mainly for tests and the search
// index loaders.
type CollectSink struct {
	mu      sync.Mutex
	Records []assembler.Record
}

func (s *CollectSink) Write(rec assembler.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, rec)
	return nil
}

func (s *CollectSink) Close() error { return nil }
