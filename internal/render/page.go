package render

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// RenderPage renders every property of page, ordered by property name.
func RenderPage(ctx context.Context, resolve ResolveFunc, page *model.Page) ([]model.Field, error) {
	names := page.PropertyNames()
	fields := make([]model.Field, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		p := page.Properties[name]
		fields[i] = model.Field{Name: name, Type: propertyType(p)}
		g.Go(func() error {
			text, err := Render(gctx, resolve, p)
			if err != nil {
				return fmt.Errorf("render %q: %w", name, err)
			}
			fields[i].Text = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fields, nil
}

// FormatFields lays fields out as one "**Name**: text" line each.
func FormatFields(fields []model.Field) string {
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = "**" + f.Name + "**: " + f.Text
	}
	return strings.Join(lines, "\n")
}

func propertyType(p model.Property) model.PropertyType {
	if p == nil {
		return ""
	}
	return p.PropertyType()
}
