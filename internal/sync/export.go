// Package sync backs up identity mappings as JSONL to external destinations.
package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/store"
)

const (
	formatVersion = "1"

	recordHeader  = "header"
	recordMapping = "mapping"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version      string    `json:"version"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	MappingCount int       `json:"mapping_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes every mapping in the store to w as JSONL: a header line
// followed by one mapping record per line, sorted by Notion user id.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	mappings, err := s.ListMappings(ctx)
	if err != nil {
		return fmt.Errorf("list mappings: %w", err)
	}
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].NotionUserID < mappings[j].NotionUserID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:      formatVersion,
		Type:         recordHeader,
		Timestamp:    time.Now().UTC(),
		MappingCount: len(mappings),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, m := range mappings {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal mapping %s: %w", m.NotionUserID, err)
		}
		if err := enc.Encode(record{Type: recordMapping, Data: data}); err != nil {
			return fmt.Errorf("encode mapping %s: %w", m.NotionUserID, err)
		}
	}
	return nil
}

// ImportJSONL reads an export produced by ExportJSONL and upserts every
// mapping in a single transaction. It returns the number of mappings written.
// Unknown record types are skipped.
func ImportJSONL(ctx context.Context, s store.Store, r io.Reader) (int, error) {
	var mappings []*model.Mapping

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec struct {
			Type    string          `json:"type"`
			Version string          `json:"version"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		switch rec.Type {
		case recordHeader:
			if rec.Version != formatVersion {
				return 0, fmt.Errorf("line %d: unsupported export version %q", line, rec.Version)
			}
		case recordMapping:
			var m model.Mapping
			if err := json.Unmarshal(rec.Data, &m); err != nil {
				return 0, fmt.Errorf("line %d: decode mapping: %w", line, err)
			}
			mappings = append(mappings, &m)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read export: %w", err)
	}

	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		for _, m := range mappings {
			if err := tx.SetMapping(ctx, m); err != nil {
				return fmt.Errorf("set mapping %s: %w", m.NotionUserID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(mappings), nil
}
