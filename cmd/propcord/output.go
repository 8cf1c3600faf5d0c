package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printFields(w io.Writer, fields []model.Field) {
	if len(fields) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("(no properties)"))
		return
	}
	fmt.Fprintln(w, ui.RenderFields(fields))
}

func printMappingTable(w io.Writer, mappings []*model.Mapping) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NOTION USER\tDISCORD ID\tNAME\tUPDATED")
	for _, m := range mappings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.NotionUserID, m.DiscordID, m.DisplayName, m.UpdatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d mappings\n", len(mappings))
}

func printMapping(w io.Writer, m *model.Mapping) {
	fmt.Fprintf(w, "Notion user: %s\n", m.NotionUserID)
	fmt.Fprintf(w, "Discord ID:  %s\n", m.DiscordID)
	if m.DisplayName != "" {
		fmt.Fprintf(w, "Name:        %s\n", m.DisplayName)
	}
	if !m.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !m.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", m.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printRenderList(w io.Writer, recs []*model.RenderRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tACTOR\tFIELDS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Actor, len(r.Fields))
	}
	tw.Flush()
}
