// Package ui styles CLI output.
package ui

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// ANSI256 color codes.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorMention = 141 // violet
	colorError   = 203 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderError returns s in the error (red) color.
func RenderError(s string) string { return paint(colorError, s) }

// RenderMention highlights every "<@id>" token in s.
func RenderMention(s string) string {
	if noColor {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "<@")
		if start < 0 {
			break
		}
		end := strings.IndexByte(s[start:], '>')
		if end < 0 {
			break
		}
		end += start + 1
		b.WriteString(s[:start])
		b.WriteString(paint(colorMention, s[start:end]))
		s = s[end:]
	}
	b.WriteString(s)
	return b.String()
}

// RenderFields formats rendered fields for the terminal, one "name: text"
// line each with aligned values. With color off the chat layout is kept so
// output can be pasted as-is.
func RenderFields(fields []model.Field) string {
	if noColor {
		lines := make([]string, len(fields))
		for i, f := range fields {
			lines[i] = "**" + f.Name + "**: " + f.Text
		}
		return strings.Join(lines, "\n")
	}
	width := 0
	for _, f := range fields {
		width = max(width, len([]rune(f.Name)))
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		pad := strings.Repeat(" ", width-len([]rune(f.Name)))
		lines[i] = RenderAccent(f.Name) + pad + "  " + RenderMention(f.Text)
	}
	return strings.Join(lines, "\n")
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
