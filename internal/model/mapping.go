package model

import "time"

// Mapping links a document-database user to a chat handle.
type Mapping struct {
	NotionUserID string    `json:"notion_user_id"`
	DiscordID    string    `json:"discord_id"`
	DisplayName  string    `json:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RenderRecord is an audit entry for a page rendered through the API.
type RenderRecord struct {
	ID        string    `json:"id"`
	PageID    string    `json:"page_id"`
	Actor     string    `json:"actor,omitempty"`
	Fields    []Field   `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
}
