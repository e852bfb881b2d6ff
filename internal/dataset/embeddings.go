package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EmbeddingRecord is one line of an embeddings file
type EmbeddingRecord struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
}

// SaveEmbeddings writes records as JSON lines
func SaveEmbeddings(path string, records []EmbeddingRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode %s: %w", rec.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// LoadEmbeddings reads a JSON lines embeddings file into a map keyed by ID.
// Every vector must have the same length; a later duplicate ID wins.
func LoadEmbeddings(path string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	out := make(map[string][]float64)
	dims := -1

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec EmbeddingRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if dims < 0 {
			dims = len(rec.Embedding)
		} else if len(rec.Embedding) != dims {
			return nil, fmt.Errorf("%s:%d: embedding for %s has %d dims, expected %d", path, line, rec.ID, len(rec.Embedding), dims)
		}
		out[rec.ID] = rec.Embedding
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}
