package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanMapping scans a single row into a model.Mapping.
// The row must contain columns in the order defined by mappingColumns.
func scanMapping(row scannable) (*model.Mapping, error) {
	var m model.Mapping
	var displayName sql.NullString
	err := row.Scan(&m.NotionUserID, &m.DiscordID, &displayName, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.DisplayName = displayName.String
	return &m, nil
}

// scanMappings scans multiple rows into a slice of model.Mapping pointers.
func scanMappings(rows *sql.Rows) ([]*model.Mapping, error) {
	var mappings []*model.Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return mappings, nil
}

// scanRender scans a single row into a model.RenderRecord.
func scanRender(row scannable) (*model.RenderRecord, error) {
	var r model.RenderRecord
	var (
		actor  sql.NullString
		fields []byte
	)
	err := row.Scan(&r.ID, &r.PageID, &actor, &fields, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Actor = actor.String
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &r.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields for render %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// scanRenders scans multiple rows into a slice of model.RenderRecord pointers.
func scanRenders(rows *sql.Rows) ([]*model.RenderRecord, error) {
	var records []*model.RenderRecord
	for rows.Next() {
		r, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
