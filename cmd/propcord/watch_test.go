package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alfredjeanlab/propcord/internal/events"
	"github.com/alfredjeanlab/propcord/internal/presence"
	"github.com/alfredjeanlab/propcord/internal/ui"
)

func TestPrintEvent(t *testing.T) {
	ui.ForceNoColor()

	tests := []struct {
		name  string
		topic string
		data  string
		want  []string
	}{
		{
			name:  "PageRendered",
			topic: events.TopicPageRendered,
			data:  `{"record":{"id":"rn-1","page_id":"page-1","actor":"ops","fields":[{"name":"Done","type":"checkbox","text":"✅"}],"created_at":"2026-01-02T03:04:05Z"}}`,
			want:  []string{"rendered page-1 by ops", "**Done**: ✅"},
		},
		{
			name:  "MappingSet",
			topic: events.TopicMappingSet,
			data:  `{"mapping":{"notion_user_id":"u1","discord_id":"123456789012345678"}}`,
			want:  []string{"mapped u1 -> <@123456789012345678>"},
		},
		{
			name:  "MappingDeleted",
			topic: events.TopicMappingDeleted,
			data:  `{"notion_user_id":"u1"}`,
			want:  []string{"unmapped u1"},
		},
		{
			name:  "UnknownTopic",
			topic: "propcord.other",
			data:  `{}`,
			want:  []string{"propcord.other:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printEvent(&buf, tt.topic, []byte(tt.data))
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestPrintEvent_JSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	var buf bytes.Buffer
	printEvent(&buf, events.TopicMappingDeleted, []byte(`{"notion_user_id":"u1"}`))
	want := `{"topic":"propcord.mapping.deleted","data":{"notion_user_id":"u1"}}` + "\n"
	if buf.String() != want {
		t.Errorf("printEvent = %q, want %q", buf.String(), want)
	}
}

func TestPrintActivity(t *testing.T) {
	ui.ForceNoColor()

	var buf bytes.Buffer
	printActivity(&buf, nil)
	if !strings.Contains(buf.String(), "no recent activity") {
		t.Errorf("empty roster output = %q", buf.String())
	}

	buf.Reset()
	printActivity(&buf, []presence.Entry{{Actor: "ci-bot", RenderCount: 2, LastPageID: "page-1", IdleSecs: 125, Idle: true}})
	out := buf.String()
	for _, want := range []string{"ci-bot", "page-1", "2m5s (idle)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
