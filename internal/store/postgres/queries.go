package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// mappingColumns is the column list used for SELECT statements on the mappings table.
const mappingColumns = `notion_user_id, discord_id, display_name, created_at, updated_at`

// renderColumns is the column list used for SELECT statements on the renders table.
const renderColumns = `id, page_id, actor, fields, created_at`

// defaultRenderLimit caps ListRenders when the caller passes no limit.
const defaultRenderLimit = 50

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the SQL for every store operation. Embedded in both the
// pooled store and the transaction store, it runs against whichever
// executor it was given.
type queries struct {
	db executor
}

func (q queries) SetMapping(ctx context.Context, m *model.Mapping) error {
	if err := model.ValidateMapping(m); err != nil {
		return err
	}
	return q.db.QueryRowContext(ctx, `
		INSERT INTO mappings (notion_user_id, discord_id, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (notion_user_id) DO UPDATE
			SET discord_id = $2, display_name = $3, updated_at = NOW()
		RETURNING created_at, updated_at`,
		m.NotionUserID, m.DiscordID, nullString(m.DisplayName),
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (q queries) GetMapping(ctx context.Context, notionUserID string) (*model.Mapping, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+mappingColumns+` FROM mappings WHERE notion_user_id = $1`, notionUserID)
	return scanMapping(row)
}

func (q queries) ListMappings(ctx context.Context) ([]*model.Mapping, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+mappingColumns+` FROM mappings ORDER BY notion_user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMappings(rows)
}

func (q queries) DeleteMapping(ctx context.Context, notionUserID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM mappings WHERE notion_user_id = $1`, notionUserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q queries) RecordRender(ctx context.Context, r *model.RenderRecord) error {
	fields, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	return q.db.QueryRowContext(ctx, `
		INSERT INTO renders (id, page_id, actor, fields)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		r.ID, r.PageID, nullString(r.Actor), fields,
	).Scan(&r.CreatedAt)
}

func (q queries) ListRenders(ctx context.Context, pageID string, limit int) ([]*model.RenderRecord, error) {
	if limit <= 0 {
		limit = defaultRenderLimit
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+renderColumns+`
		FROM renders WHERE page_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, pageID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRenders(rows)
}
