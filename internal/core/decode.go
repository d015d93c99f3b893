package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/salesview/internal/logging"
)

// ErrNoValidData is returned when the input holds no header row or no data rows.
var ErrNoValidData = errors.New("no valid CSV data")

// DefaultChunkSize is the read size used by the streaming decoder.
const DefaultChunkSize = 64 * 1024

// ProgressInterval is how often (in records) decoding progress is logged.
var ProgressInterval = 10000

// ParseOptions tunes the decoder.
type ParseOptions struct {
	ChunkSize   int // bytes per read; DefaultChunkSize when <= 0
	MaxRowBytes int // see NewParser; DefaultMaxRowBytes when 0, unlimited when < 0
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxRowBytes == 0 {
		o.MaxRowBytes = DefaultMaxRowBytes
	}
	return o
}

// Table is the decoded form of a CSV document.
type Table struct {
	Columns []string // canonical column names, duplicates removed, header order
	Records []Record
}

// tableBuilder maps parsed rows positionally onto the header row.
type tableBuilder struct {
	header  []string
	records []Record
}

func (b *tableBuilder) add(row []string) {
	if b.header == nil {
		b.header = make([]string, len(row))
		for i, h := range row {
			b.header[i] = CanonicalColumn(h)
		}
		return
	}
	if len(b.header) == 0 {
		return
	}

	rec := make(Record, len(b.header))
	for i, col := range b.header {
		var v string
		if i < len(row) {
			v = strings.TrimSpace(row[i])
		}
		rec[col] = v
	}
	b.records = append(b.records, rec)
}

func (b *tableBuilder) table() (*Table, error) {
	if b.header == nil || len(b.records) == 0 {
		return nil, ErrNoValidData
	}

	seen := make(map[string]bool, len(b.header))
	cols := make([]string, 0, len(b.header))
	for _, h := range b.header {
		if !seen[h] {
			seen[h] = true
			cols = append(cols, h)
		}
	}
	return &Table{Columns: cols, Records: b.records}, nil
}

// ParseString decodes a fully materialized CSV document.
func ParseString(text string, opts ParseOptions) (*Table, error) {
	opts = opts.withDefaults()
	p := NewParser(opts.MaxRowBytes)
	var b tableBuilder

	if _, err := p.Write([]byte(text)); err != nil {
		return nil, err
	}
	if err := p.Close(); err != nil {
		return nil, err
	}
	for _, row := range p.Rows() {
		b.add(row)
	}
	return b.table()
}

// ParseReader decodes CSV from r in fixed-size chunks. Memory held by the
// decoder is bounded by the chunk size plus the row in progress; the
// decoded records themselves are the only thing that grows with input.
// Cancellation of ctx is checked between chunks.
func ParseReader(ctx context.Context, r io.Reader, opts ParseOptions) (*Table, error) {
	opts = opts.withDefaults()
	logger := logging.FromContext(ctx)

	p := NewParser(opts.MaxRowBytes)
	var b tableBuilder
	buf := make([]byte, opts.ChunkSize)
	nextReport := ProgressInterval

	drain := func() {
		for _, row := range p.Rows() {
			b.add(row)
		}
		if ProgressInterval > 0 && len(b.records) >= nextReport {
			logger.Debug("csv decode progress", "records", len(b.records))
			nextReport += ProgressInterval
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := p.Write(buf[:n]); err != nil {
				return nil, err
			}
			drain()
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read csv: %w", readErr)
		}
	}

	if p.InQuotes() {
		logger.Warn("csv input ends inside a quoted field", "records", len(b.records))
	}
	if err := p.Close(); err != nil {
		return nil, err
	}
	drain()
	return b.table()
}

// ParseFile opens path and decodes it with ParseReader. The file is closed
// on every return path.
func ParseFile(ctx context.Context, path string, opts ParseOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return ParseReader(ctx, NewUTF8Sanitizer(f), opts)
}
