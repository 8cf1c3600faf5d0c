package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var mappingRowColumns = []string{"notion_user_id", "discord_id", "display_name", "created_at", "updated_at"}

var renderRowColumns = []string{"id", "page_id", "actor", "fields", "created_at"}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf("nullString(\"hello\") = %v", ns)
	}
}

func TestQuerySetMapping(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	m := &model.Mapping{NotionUserID: "u1", DiscordID: "123456789012345678", DisplayName: "Alice"}
	mock.ExpectQuery("INSERT INTO mappings").
		WithArgs("u1", "123456789012345678", "Alice").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := (queries{db}).SetMapping(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestQuerySetMapping_NullDisplayName(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO mappings").
		WithArgs("u1", "123456789012345678", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	m := &model.Mapping{NotionUserID: "u1", DiscordID: "123456789012345678"}
	if err := (queries{db}).SetMapping(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQuerySetMapping_Invalid(t *testing.T) {
	db, _ := newMockDB(t)
	m := &model.Mapping{NotionUserID: "u1", DiscordID: "not-a-snowflake"}

	err := queries{db}.SetMapping(context.Background(), m)
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.ValidationError, got %v", err)
	}
}

func TestQueryGetMapping(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM mappings WHERE notion_user_id = \\$1").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(mappingRowColumns).
			AddRow("u1", "123456789012345678", nil, now, now))

	m, err := queries{db}.GetMapping(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.DiscordID != "123456789012345678" {
		t.Errorf("DiscordID = %q", m.DiscordID)
	}
	if m.DisplayName != "" {
		t.Errorf("DisplayName = %q, want empty", m.DisplayName)
	}
}

func TestQueryGetMapping_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM mappings WHERE notion_user_id = \\$1").WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	if _, err := (queries{db}).GetMapping(context.Background(), "nobody"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryListMappings(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM mappings ORDER BY notion_user_id").
		WillReturnRows(sqlmock.NewRows(mappingRowColumns).
			AddRow("u1", "123456789012345678", "Alice", now, now).
			AddRow("u2", "223456789012345678", nil, now, now))

	mappings, err := queries{db}.ListMappings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(mappings))
	}
	if mappings[0].DisplayName != "Alice" || mappings[1].NotionUserID != "u2" {
		t.Fatalf("unexpected mappings: %+v, %+v", mappings[0], mappings[1])
	}
}

func TestQueryDeleteMapping(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM mappings WHERE notion_user_id = \\$1").WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := (queries{db}).DeleteMapping(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryDeleteMapping_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM mappings WHERE notion_user_id = \\$1").WithArgs("nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := (queries{db}).DeleteMapping(context.Background(), "nobody"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestQueryRecordRender(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	r := &model.RenderRecord{
		ID:     "rn-abc123",
		PageID: "page-1",
		Actor:  "bot",
		Fields: []model.Field{{Name: "Done", Type: model.PropertyCheckbox, Text: "✅"}},
	}
	mock.ExpectQuery("INSERT INTO renders").
		WithArgs("rn-abc123", "page-1", "bot", []byte(`[{"name":"Done","type":"checkbox","text":"✅"}]`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	if err := (queries{db}).RecordRender(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", r.CreatedAt, now)
	}
}

func TestQueryListRenders(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM renders WHERE page_id = \\$1").WithArgs("page-1", 5).
		WillReturnRows(sqlmock.NewRows(renderRowColumns).
			AddRow("rn-2", "page-1", nil, []byte(`[{"name":"Name","type":"title","text":"B"}]`), now).
			AddRow("rn-1", "page-1", "bot", []byte(`[]`), now.Add(-time.Minute)))

	records, err := queries{db}.ListRenders(context.Background(), "page-1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(records[0].Fields) != 1 || records[0].Fields[0].Text != "B" {
		t.Errorf("Fields = %+v", records[0].Fields)
	}
	if records[1].Actor != "bot" {
		t.Errorf("Actor = %q", records[1].Actor)
	}
}

func TestQueryListRenders_DefaultLimit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM renders WHERE page_id = \\$1").WithArgs("page-1", defaultRenderLimit).
		WillReturnRows(sqlmock.NewRows(renderRowColumns))

	records, err := queries{db}.ListRenders(context.Background(), "page-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestScanRender_BadFields(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM renders").WithArgs("page-1", 1).
		WillReturnRows(sqlmock.NewRows(renderRowColumns).
			AddRow("rn-1", "page-1", nil, []byte(`{not json`), time.Now()))

	if _, err := (queries{db}).ListRenders(context.Background(), "page-1", 1); err == nil {
		t.Fatal("expected error for malformed fields column")
	}
}

func TestRunInTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM mappings").WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteMapping(context.Background(), "u1")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewWithDB(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM mappings").WithArgs("nobody").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.DeleteMapping(context.Background(), "nobody")
	})
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}
