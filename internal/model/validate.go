package model

import (
	"fmt"
	"strings"
)

// Discord snowflakes are 64-bit integers; they are handled as strings because
// float64 JSON numbers would lose the trailing digits.
const (
	discordIDMinLen = 17
	discordIDMaxLen = 19
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Messages returns the field messages without field names.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Message
	}
	return msgs
}

// ValidateDiscordID checks that id looks like a Discord user snowflake: 17 to
// 19 characters, all ASCII digits. Every failed rule is reported.
func ValidateDiscordID(id string) error {
	var ve ValidationError

	if n := len(id); n < discordIDMinLen {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "discord_id",
			Message: fmt.Sprintf("must be at least %d characters, got %d", discordIDMinLen, n),
		})
	} else if n > discordIDMaxLen {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "discord_id",
			Message: fmt.Sprintf("must be at most %d characters, got %d", discordIDMaxLen, n),
		})
	}

	if id == "" || strings.IndexFunc(id, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "discord_id",
			Message: "must contain only digits",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateMapping checks a Mapping for constraint violations.
func ValidateMapping(m *Mapping) error {
	var ve ValidationError

	if strings.TrimSpace(m.NotionUserID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "notion_user_id", Message: "is required"})
	}
	if err := ValidateDiscordID(m.DiscordID); err != nil {
		ve.Errors = append(ve.Errors, err.(*ValidationError).Errors...)
	}
	if len([]rune(m.DisplayName)) > 200 {
		ve.Errors = append(ve.Errors, FieldError{Field: "display_name", Message: "must be 200 characters or fewer"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
