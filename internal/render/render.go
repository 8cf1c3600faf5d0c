// Package render turns typed page properties into single-line chat text.
//
// Rendering is total: every property, including unrecognised ones, yields a
// non-empty string. The only error source is the injected ResolveFunc.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/propcord/internal/model"
)

// ResolveFunc maps a document-database user ID to a chat handle. An empty
// handle with a nil error means the user has no mapping.
type ResolveFunc func(ctx context.Context, userID string) (string, error)

// NoResolve is a ResolveFunc that never finds a mapping.
func NoResolve(context.Context, string) (string, error) { return "", nil }

// Placeholders rendered for absent values.
const (
	EmptyTitle            = "[Empty Title]"
	EmptyText             = "[Empty Text]"
	NoURL                 = "[No URL]"
	NoSelection           = "[No Selection]"
	NoSelections          = "[No Selections]"
	NoDate                = "[No Date]"
	InvalidDate           = "[Invalid Date]"
	NoEmail               = "[No Email]"
	NoPhone               = "[No Phone]"
	NoNumber              = "[No Number]"
	NoStatus              = "[No Status]"
	NoTime                = "[No Time]"
	NoID                  = "[No ID]"
	NoRelations           = "[No Relations]"
	NoPeople              = "[No People]"
	NoFormulaString       = "[No Formula String]"
	NoFormulaNumber       = "[No Formula Number]"
	NoFormulaBoolean      = "[No Formula Boolean]"
	UnsupportedFormula    = "[Unsupported Formula Type]"
	NoFiles               = "[No Files]"
	NoRollupNumber        = "[No Rollup Number]"
	EmptyRollupArray      = "[Empty Rollup Array]"
	UnsupportedRollup     = "[Unsupported Rollup Type]"
	checked               = "✅"
	unchecked             = "❌"
	listSeparator         = ", "
	unsupportedTypePrefix = "[Unsupported Type: "
)

// maxDumpBytes bounds the structural dump of an unsupported property.
const maxDumpBytes = 1024

// Render formats p as display text. Person-valued properties are resolved
// through resolve; its first error is returned unmodified and no text is
// produced.
func Render(ctx context.Context, resolve ResolveFunc, p model.Property) (string, error) {
	switch p := p.(type) {
	case model.Title:
		return orDefault(joinRuns(p.Runs), EmptyTitle), nil
	case model.RichText:
		return orDefault(joinRuns(p.Runs), EmptyText), nil
	case model.URL:
		return deref(p.Value, NoURL), nil
	case model.Select:
		return optionName(p.Option, NoSelection), nil
	case model.MultiSelect:
		names := make([]string, len(p.Options))
		for i, o := range p.Options {
			names[i] = o.Name
		}
		return orDefault(strings.Join(names, listSeparator), NoSelections), nil
	case model.Date:
		return formatDate(p.Value), nil
	case model.Checkbox:
		return formatBool(p.Checked), nil
	case model.Email:
		return deref(p.Value, NoEmail), nil
	case model.PhoneNumber:
		return deref(p.Value, NoPhone), nil
	case model.Number:
		return formatOptionalNumber(p.Value, NoNumber), nil
	case model.Status:
		return optionName(p.Option, NoStatus), nil
	case model.CreatedTime:
		return deref(p.Value, NoTime), nil
	case model.LastEditedTime:
		return deref(p.Value, NoTime), nil
	case model.CreatedBy:
		return FormatPerson(ctx, resolve, p.Person)
	case model.LastEditedBy:
		return FormatPerson(ctx, resolve, p.Person)
	case model.UniqueID:
		return formatUniqueID(p), nil
	case model.Relation:
		ids := make([]string, len(p.Items))
		for i, r := range p.Items {
			ids[i] = r.ID
		}
		return orDefault(strings.Join(ids, listSeparator), NoRelations), nil
	case model.People:
		out, err := renderAll(ctx, len(p.People), func(ctx context.Context, i int) (string, error) {
			return FormatPerson(ctx, resolve, p.People[i])
		})
		if err != nil {
			return "", err
		}
		return orDefault(out, NoPeople), nil
	case model.Formula:
		return renderFormula(p.Result), nil
	case model.Files:
		return renderFiles(p.Files), nil
	case model.Rollup:
		return renderRollup(ctx, resolve, p.Result)
	case model.Unknown:
		return unsupported(p), nil
	}
	return unsupported(p), nil
}

// FormatPerson renders a person reference. A resolved handle becomes a
// mention; otherwise the profile name is used, falling back to the raw id.
func FormatPerson(ctx context.Context, resolve ResolveFunc, person model.Person) (string, error) {
	handle, err := resolve(ctx, person.ID)
	if err != nil {
		return "", err
	}
	if handle != "" {
		return Mention(handle), nil
	}
	if person.IsPartial() {
		return person.ID, nil
	}
	return deref(person.Name, person.ID), nil
}

// Mention wraps a chat handle in the user-mention token.
func Mention(handle string) string {
	return "<@" + handle + ">"
}

func renderFormula(r model.FormulaResult) string {
	switch r := r.(type) {
	case model.FormulaString:
		return deref(r.Value, NoFormulaString)
	case model.FormulaNumber:
		return formatOptionalNumber(r.Value, NoFormulaNumber)
	case model.FormulaBoolean:
		if r.Value == nil {
			return NoFormulaBoolean
		}
		return formatBool(*r.Value)
	case model.FormulaDate:
		return formatDate(r.Value)
	}
	return UnsupportedFormula
}

func renderRollup(ctx context.Context, resolve ResolveFunc, r model.RollupResult) (string, error) {
	switch r := r.(type) {
	case model.RollupNumber:
		return formatOptionalNumber(r.Value, NoRollupNumber), nil
	case model.RollupDate:
		return formatDate(r.Value), nil
	case model.RollupArray:
		out, err := renderAll(ctx, len(r.Items), func(ctx context.Context, i int) (string, error) {
			return Render(ctx, resolve, r.Items[i])
		})
		if err != nil {
			return "", err
		}
		return orDefault(out, EmptyRollupArray), nil
	}
	return UnsupportedRollup, nil
}

func renderFiles(files []model.FileEntry) string {
	parts := make([]string, len(files))
	for i, f := range files {
		switch f.Type {
		case model.FileTypeFile, model.FileTypeExternal:
			parts[i] = "[" + f.Name + "](" + f.URL + ")"
		default:
			parts[i] = f.Name
		}
	}
	return orDefault(strings.Join(parts, listSeparator), NoFiles)
}

// renderAll runs fn for every index concurrently and joins the results in
// index order, whatever order they complete in.
func renderAll(ctx context.Context, n int, fn func(ctx context.Context, i int) (string, error)) (string, error) {
	results := make([]string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			s, err := fn(gctx, i)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(results, listSeparator), nil
}

// formatDate applies the shared date rule to a date, formula date or rollup
// date value.
func formatDate(d *model.DateValue) string {
	if d == nil {
		return NoDate
	}
	if d.Start == nil || *d.Start == "" {
		return InvalidDate
	}
	if d.End != nil && *d.End != "" {
		return *d.Start + " - " + *d.End
	}
	return *d.Start
}

func formatUniqueID(u model.UniqueID) string {
	if u.Number == nil {
		return NoID
	}
	n := strconv.FormatInt(*u.Number, 10)
	if u.Prefix == nil {
		return n
	}
	return *u.Prefix + "-" + n
}

func formatBool(b bool) string {
	if b {
		return checked
	}
	return unchecked
}

func formatOptionalNumber(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}
	return FormatNumber(*v)
}

// FormatNumber prints v the way the document database's own UI does: the
// shortest decimal that round-trips, switching to exponent form below 1e-6
// and from 1e21 upward.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	abs := math.Abs(v)
	if (abs >= 1e-6 && abs < 1e21) || math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

func joinRuns(runs []model.TextRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return b.String()
}

func optionName(o *model.SelectOption, fallback string) string {
	if o == nil {
		return fallback
	}
	return o.Name
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// unsupported renders the diagnostic for a property type this package does
// not model, embedding an indented dump of the property.
func unsupported(p model.Property) string {
	return unsupportedTypePrefix + dump(p) + "]"
}

func dump(p model.Property) string {
	var raw []byte
	switch p := p.(type) {
	case model.Unknown:
		raw = withoutID(p.Raw)
		if len(raw) == 0 {
			raw, _ = json.Marshal(map[string]string{"type": p.Type})
		}
	case nil:
		raw = []byte("null")
	default:
		raw, _ = json.Marshal(map[string]any{"type": p.PropertyType(), string(p.PropertyType()): p})
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	return truncate(buf.String(), maxDumpBytes)
}

// withoutID drops the top-level "id" member of a JSON object, keeping the
// order of the remaining members. Anything else is returned unchanged.
func withoutID(raw []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return raw
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return raw
		}
		key, ok := tok.(string)
		if !ok {
			return raw
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return raw
		}
		if key == "id" {
			continue
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// truncate cuts s to at most max bytes on a rune boundary, marking the cut
// with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
