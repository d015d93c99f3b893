package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/JonMunkholm/salesview/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// ServiceConfig holds the tunables for a Service.
type ServiceConfig struct {
	Parse                ParseOptions
	MaxConcurrentUploads int
	MaxUploadWait        time.Duration
	Vocabulary           *Vocabulary // nil selects DefaultVocabulary
}

// Service is the entry point for loading and querying sales data.
// Every load builds a complete Dataset before swapping it into the store,
// so a failed load never disturbs the active dataset.
type Service struct {
	store   Store
	limiter *UploadLimiter
	parse   ParseOptions
	vocab   Vocabulary
	now     func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store, cfg ServiceConfig) *Service {
	vocab := DefaultVocabulary()
	if cfg.Vocabulary != nil {
		vocab = *cfg.Vocabulary
	}
	return &Service{
		store:   store,
		limiter: NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.MaxUploadWait),
		parse:   cfg.Parse.withDefaults(),
		vocab:   vocab,
		now:     time.Now,
	}
}

// UploadMeta describes the origin of an uploaded CSV.
type UploadMeta struct {
	FileName string
	Size     int64
	Checksum uint64 // precomputed xxh3 of the file, if the caller hashed it
}

// LoadCSVFile parses the CSV file at path and replaces the active dataset.
// The caller owns the file; it is opened and closed here but not removed.
func (s *Service) LoadCSVFile(ctx context.Context, path string, meta UploadMeta) (*Dataset, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	table, err := ParseFile(ctx, path, s.parse)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", meta.FileName, err)
	}
	return s.install(ctx, table, "csv", meta, start), nil
}

// LoadCSV parses CSV from r and replaces the active dataset. The content
// checksum is computed while reading.
func (s *Service) LoadCSV(ctx context.Context, r io.Reader, meta UploadMeta) (*Dataset, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	hasher := xxh3.New()
	counter := NewCountingReader(io.TeeReader(r, hasher))

	table, err := ParseReader(ctx, NewUTF8Sanitizer(counter), s.parse)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", meta.FileName, err)
	}
	meta.Checksum = hasher.Sum64()
	meta.Size = counter.BytesRead
	return s.install(ctx, table, "csv", meta, start), nil
}

func (s *Service) install(ctx context.Context, table *Table, source string, meta UploadMeta, start time.Time) *Dataset {
	ds := &Dataset{
		ID:       uuid.NewString(),
		Source:   source,
		FileName: meta.FileName,
		LoadedAt: s.now().UTC(),
		Columns:  table.Columns,
		Records:  table.Records,
		Checksum: meta.Checksum,
		Size:     meta.Size,
	}
	s.store.Replace(ds)

	logging.FromContext(ctx).Info("dataset loaded",
		"dataset_id", ds.ID,
		"source", source,
		"file", meta.FileName,
		"size", humanize.IBytes(uint64(max(meta.Size, 0))),
		"records", len(ds.Records),
		"columns", len(ds.Columns),
		"checksum", formatChecksum(ds.Checksum),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds
}

// LoadJSON replaces the active dataset with records decoded from raw, which
// must be a JSON array of objects. Values are coerced to strings; keys are
// kept as sent.
func (s *Service) LoadJSON(ctx context.Context, raw json.RawMessage) (*Dataset, error) {
	start := time.Now()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidJSONData
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSONData, err)
	}

	records := make([]Record, 0, len(items))
	seen := make(map[string]bool)
	var columns []string
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidJSONData, i)
		}
		rec := make(Record, len(obj))
		keys := make([]string, 0, len(obj))
		for k, v := range obj {
			rec[k] = stringify(v)
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		records = append(records, rec)
	}

	table := &Table{Columns: columns, Records: records}
	meta := UploadMeta{Size: int64(len(trimmed)), Checksum: xxh3.Hash(trimmed)}
	return s.install(ctx, table, "json", meta, start), nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// Query runs the search/filter/sort/paginate pipeline over the active dataset.
func (s *Service) Query(p QueryParams) PageResult {
	return RunQuery(s.store.Current().Records, p)
}

// Select returns every record matching p, sorted, without pagination.
func (s *Service) Select(p QueryParams) ([]string, []Record) {
	ds := s.store.Current()
	return ds.Columns, Select(ds.Records, p)
}

// FilterOptions derives the filter options from the active dataset.
func (s *Service) FilterOptions() FilterOptions {
	return DeriveFilterOptions(s.store.Current().Records, s.vocab)
}

// DatasetInfo summarizes the active dataset.
func (s *Service) DatasetInfo() DatasetInfo {
	ds := s.store.Current()
	info := DatasetInfo{
		ID:       ds.ID,
		Source:   ds.Source,
		FileName: ds.FileName,
		LoadedAt: ds.LoadedAt,
		Records:  ds.Len(),
		Columns:  ds.Columns,
	}
	if info.Columns == nil {
		info.Columns = []string{}
	}
	if ds.ID != "" {
		info.Checksum = formatChecksum(ds.Checksum)
	}
	return info
}

// UploadLimiterStatus returns the upload limiter state.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
