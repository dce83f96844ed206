package evlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"evreport/pkg/types"
)

// JSONLSource reads raw event records from a JSON-lines export file, one
// record object per line. This is the portable stand-in for the native
// sequential event log reader: exports produced by evtx dump tooling carry
// the same field names (TimeGenerated, EventID, SourceName, EventType,
// EventCategory, Message, StringInserts).
type JSONLSource struct {
	log       string
	file      *os.File
	scanner   *bufio.Scanner
	batchSize int
}

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 512

// maxLineBytes bounds a single record line. Description payloads can be
// large, so this is well above the bufio default.
const maxLineBytes = 4 * 1024 * 1024

// OpenJSONL opens a JSON-lines export for the named log. A failure to open
// the file is reported as an *OpenError carrying the log name.
func OpenJSONL(logName, path string, batchSize int) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Log: logName, Err: err}
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	return &JSONLSource{
		log:       logName,
		file:      f,
		scanner:   scanner,
		batchSize: batchSize,
	}, nil
}

// Log returns the name of the log this source reads.
func (s *JSONLSource) Log() string { return s.log }

// Read returns the next batch of records. A line that is not valid JSON still
// yields a (zero) record: it was retrieved from the source, so it must be
// visible to the scan tally, and it will be dropped during normalization for
// lack of a timestamp.
func (s *JSONLSource) Read(ctx context.Context) ([]types.RawRecord, error) {
	batch := make([]types.RawRecord, 0, s.batchSize)

	for len(batch) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read event log %q: %w", s.log, err)
			}
			break
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var rec types.RawRecord
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&rec); err != nil {
			rec = types.RawRecord{}
		}
		batch = append(batch, rec)
	}

	return batch, nil
}

// Close closes the underlying file.
func (s *JSONLSource) Close() error {
	return s.file.Close()
}

// SliceSource serves records from memory. It is the Source used in tests and
// by callers that already hold the records.
type SliceSource struct {
	records   []types.RawRecord
	batchSize int
	off       int
}

// NewSliceSource creates a SliceSource over the given records.
func NewSliceSource(records ...types.RawRecord) *SliceSource {
	return &SliceSource{records: records, batchSize: DefaultBatchSize}
}

// WithBatchSize sets the batch size returned per Read.
func (s *SliceSource) WithBatchSize(n int) *SliceSource {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Read returns the next batch of records.
func (s *SliceSource) Read(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.off >= len(s.records) {
		return nil, nil
	}

	end := s.off + s.batchSize
	if end > len(s.records) {
		end = len(s.records)
	}
	batch := s.records[s.off:end]
	s.off = end
	return batch, nil
}

// Close is a no-op for in-memory sources.
func (s *SliceSource) Close() error { return nil }
