package model

import (
	"sort"
	"time"
)

// Page is a document-database page with its typed properties.
type Page struct {
	Object         string     `json:"object"`
	ID             string     `json:"id"`
	URL            string     `json:"url,omitempty"`
	CreatedTime    time.Time  `json:"created_time"`
	LastEditedTime time.Time  `json:"last_edited_time"`
	Archived       bool       `json:"archived,omitempty"`
	Properties     Properties `json:"properties"`
}

// PropertyNames returns the page's property names in byte order.
func (p *Page) PropertyNames() []string {
	names := make([]string, 0, len(p.Properties))
	for name := range p.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field is one rendered property of a page.
type Field struct {
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
	Text string       `json:"text"`
}
