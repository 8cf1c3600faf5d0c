package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/propcord/internal/ui"
)

// helpRule restyles one kind of token in Cobra's plain help text.
type helpRule struct {
	re    *regexp.Regexp
	apply func(groups []string) string
}

var helpRules = []helpRule{
	// Section headers: "Rendering:", "Flags:", "Global Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), func(g []string) string {
		return ui.RenderAccent(g[1])
	}},
	// Command names in a listing: two-space indent, name, two or more spaces.
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func(g []string) string {
		return g[1] + ui.RenderCommand(g[2]) + g[3]
	}},
	// Flag value types such as "--server string" or "--map stringToString".
	{regexp.MustCompile(`(--?\S+\s+)(stringToString|stringSlice|string|int|duration)\b`), func(g []string) string {
		return g[1] + ui.RenderMuted(g[2])
	}},
	{regexp.MustCompile(`\(default [^)]*\)`), func(g []string) string {
		return ui.RenderMuted(g[0])
	}},
}

// colorizedHelpFunc renders Cobra's usage text, styled when stdout supports
// color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.apply(rule.re.FindStringSubmatch(match))
		})
	}
	return strings.TrimRight(s, "\n") + "\n"
}
