package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/propcord/internal/config"
	"github.com/alfredjeanlab/propcord/internal/model"
)

func TestRenderDocument(t *testing.T) {
	resolve := staticResolver(map[string]string{"u1": "123456789012345678"}).Resolve

	tests := []struct {
		name  string
		input string
		want  []model.Field
	}{
		{
			name:  "Property",
			input: `{"id":"abc","type":"checkbox","checkbox":true}`,
			want:  []model.Field{{Name: "abc", Type: model.PropertyCheckbox, Text: "✅"}},
		},
		{
			name:  "PropertyWithoutID",
			input: `{"type":"people","people":[{"object":"user","id":"u1"},{"object":"user","id":"u2"}]}`,
			want:  []model.Field{{Name: "people", Type: model.PropertyPeople, Text: "<@123456789012345678>, u2"}},
		},
		{
			name: "Page",
			input: `{"object":"page","id":"p1","properties":{
				"Name":{"id":"title","type":"title","title":[{"plain_text":"Ship it"}]},
				"Done":{"id":"d","type":"checkbox","checkbox":false}}}`,
			want: []model.Field{
				{Name: "Done", Type: model.PropertyCheckbox, Text: "❌"},
				{Name: "Name", Type: model.PropertyTitle, Text: "Ship it"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderDocument(context.Background(), []byte(tt.input), resolve)
			if err != nil {
				t.Fatalf("renderDocument: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderDocument_Invalid(t *testing.T) {
	for _, input := range []string{`[1,2]`, `not json`, `{"type":"checkbox","checkbox":"yes"}`} {
		if _, err := renderDocument(context.Background(), []byte(input), staticResolver(nil).Resolve); err == nil {
			t.Errorf("renderDocument(%s): expected error", input)
		}
	}
}

func TestReadInput_Stdin(t *testing.T) {
	data, err := readInput(strings.NewReader(`{"type":"checkbox"}`), "-")
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if string(data) != `{"type":"checkbox"}` {
		t.Errorf("readInput = %q", data)
	}
}

func TestPrintJSON_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, map[string]string{"text": "<@123>"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"<@123>"`) {
		t.Errorf("printJSON escaped mention: %s", buf.String())
	}
}

func TestFileResolver(t *testing.T) {
	var queried []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queried = append(queried, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","results":[{"object":"page","id":"m1","properties":{`+
			`"Discord ID":{"type":"rich_text","rich_text":[{"plain_text":"223456789012345678"}]}}}]}`)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mappings := map[string]string{"u1": "123456789012345678"}

	t.Run("StaticOnly", func(t *testing.T) {
		r := fileResolver(&config.Config{}, mappings, logger)
		for id, want := range map[string]string{"u1": "123456789012345678", "u2": ""} {
			got, err := r.Resolve(context.Background(), id)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", id, err)
			}
			if got != want {
				t.Errorf("Resolve(%q) = %q, want %q", id, got, want)
			}
		}
	})

	t.Run("FallsBackToMemberDatabase", func(t *testing.T) {
		queried = nil
		cfg := &config.Config{
			NotionToken:      "secret",
			NotionBaseURL:    srv.URL,
			MemberDatabaseID: "members",
			MemberProperty:   "Member",
			HandleProperty:   "Discord ID",
		}
		r := fileResolver(cfg, mappings, logger)

		got, err := r.Resolve(context.Background(), "u1")
		if err != nil || got != "123456789012345678" {
			t.Fatalf("Resolve(u1) = %q, %v", got, err)
		}
		if len(queried) != 0 {
			t.Fatalf("static mapping should not query, got %v", queried)
		}

		got, err = r.Resolve(context.Background(), "u2")
		if err != nil {
			t.Fatalf("Resolve(u2): %v", err)
		}
		if got != "223456789012345678" {
			t.Errorf("Resolve(u2) = %q, want member database handle", got)
		}
		if len(queried) != 1 || queried[0] != "/v1/databases/members/query" {
			t.Errorf("queried = %v", queried)
		}
	})
}
