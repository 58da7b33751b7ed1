package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/alexandria/internal/book"
)

// MemoryStore holds the corpus in memory. Suitable for corpora up to tens of
// thousands of records; beyond that use SQLiteStore.
type MemoryStore struct {
	records []book.Record
	byID    map[string]int
}

// NewMemoryStore builds a store over the given records. Corpus order is
// preserved; it is the tie-break order for equal relevance scores.
func NewMemoryStore(records []book.Record) *MemoryStore {
	byID := make(map[string]int, len(records))
	for i, rec := range records {
		byID[rec.ID] = i
	}
	return &MemoryStore{records: records, byID: byID}
}

// LoadFile reads a corpus from a JSON (.json), YAML (.yaml/.yml) or CSV
// (.csv) file.
func LoadFile(path string) (*MemoryStore, error) {
	var records []book.Record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus file: %w", err)
		}
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse corpus JSON: %w", err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus file: %w", err)
		}
		records, err = decodeYAMLCorpus(data)
		if err != nil {
			return nil, err
		}
	case ".csv":
		var err error
		records, err = loadCSVCorpus(path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported corpus file extension %q", ext)
	}

	slog.Info("Corpus loaded", "path", path, "records", len(records))
	return NewMemoryStore(records), nil
}

// decodeYAMLCorpus routes YAML documents through the JSON decoder so the
// record field aliases are normalized the same way for both formats.
func decodeYAMLCorpus(data []byte) ([]book.Record, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse corpus YAML: %w", err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize corpus YAML: %w", err)
	}
	var records []book.Record
	if err := json.Unmarshal(jsonData, &records); err != nil {
		return nil, fmt.Errorf("failed to decode corpus records: %w", err)
	}
	return records, nil
}

// GetRecord fetches a record by identifier.
func (s *MemoryStore) GetRecord(_ context.Context, id string) (book.Record, error) {
	i, ok := s.byID[id]
	if !ok {
		return book.Record{}, fmt.Errorf("%w: id %q", book.ErrNotFound, id)
	}
	return s.records[i], nil
}

// All returns the corpus in load order.
func (s *MemoryStore) All(_ context.Context) ([]book.Record, error) {
	return s.records, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
