package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeProperty decodes one property value as returned by the
// document-database API ({"id": ..., "type": T, T: payload}).
//
// Unrecognised types decode to Unknown and never fail. A payload that does not
// match its declared type is an error.
func DecodeProperty(data []byte) (Property, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode property: %w", err)
	}

	t := PropertyType(head.Type)
	if !t.IsKnown() {
		return Unknown{Type: head.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode %s property: %w", t, err)
	}
	payload := fields[head.Type]

	p, err := decodePayload(t, payload, fields)
	if err != nil {
		return nil, fmt.Errorf("decode %s property: %w", t, err)
	}
	return p, nil
}

func decodePayload(t PropertyType, payload json.RawMessage, fields map[string]json.RawMessage) (Property, error) {
	switch t {
	case PropertyTitle:
		var runs []TextRun
		if err := unmarshalOptional(payload, &runs); err != nil {
			return nil, err
		}
		return Title{Runs: runs}, nil
	case PropertyRichText:
		var runs []TextRun
		if err := unmarshalOptional(payload, &runs); err != nil {
			return nil, err
		}
		return RichText{Runs: runs}, nil
	case PropertyURL:
		var v *string
		if err := unmarshalOptional(payload, &v); err != nil {
			return nil, err
		}
		return URL{Value: v}, nil
	case PropertySelect:
		var o *SelectOption
		if err := unmarshalOptional(payload, &o); err != nil {
			return nil, err
		}
		return Select{Option: o}, nil
	case PropertyMultiSelect:
		var opts []SelectOption
		if err := unmarshalOptional(payload, &opts); err != nil {
			return nil, err
		}
		return MultiSelect{Options: opts}, nil
	case PropertyDate:
		var d *DateValue
		if err := unmarshalOptional(payload, &d); err != nil {
			return nil, err
		}
		return Date{Value: d}, nil
	case PropertyCheckbox:
		var b bool
		if err := unmarshalOptional(payload, &b); err != nil {
			return nil, err
		}
		return Checkbox{Checked: b}, nil
	case PropertyEmail:
		var v *string
		if err := unmarshalOptional(payload, &v); err != nil {
			return nil, err
		}
		return Email{Value: v}, nil
	case PropertyPhoneNumber:
		var v *string
		if err := unmarshalOptional(payload, &v); err != nil {
			return nil, err
		}
		return PhoneNumber{Value: v}, nil
	case PropertyNumber:
		var n *float64
		if err := unmarshalOptional(payload, &n); err != nil {
			return nil, err
		}
		return Number{Value: n}, nil
	case PropertyStatus:
		var o *SelectOption
		if err := unmarshalOptional(payload, &o); err != nil {
			return nil, err
		}
		return Status{Option: o}, nil
	case PropertyCreatedTime:
		var v *string
		if err := unmarshalOptional(payload, &v); err != nil {
			return nil, err
		}
		return CreatedTime{Value: v}, nil
	case PropertyLastEditedTime:
		var v *string
		if err := unmarshalOptional(payload, &v); err != nil {
			return nil, err
		}
		return LastEditedTime{Value: v}, nil
	case PropertyCreatedBy:
		p, err := decodePerson(payload)
		if err != nil {
			return nil, err
		}
		return CreatedBy{Person: p}, nil
	case PropertyLastEditedBy:
		p, err := decodePerson(payload)
		if err != nil {
			return nil, err
		}
		return LastEditedBy{Person: p}, nil
	case PropertyUniqueID:
		var u struct {
			Number *int64  `json:"number"`
			Prefix *string `json:"prefix"`
		}
		if err := unmarshalOptional(payload, &u); err != nil {
			return nil, err
		}
		return UniqueID{Number: u.Number, Prefix: u.Prefix}, nil
	case PropertyRelation:
		var items []RelationItem
		if err := unmarshalOptional(payload, &items); err != nil {
			return nil, err
		}
		var hasMore bool
		if err := unmarshalOptional(fields["has_more"], &hasMore); err != nil {
			return nil, err
		}
		return Relation{Items: items, HasMore: hasMore}, nil
	case PropertyPeople:
		var wires []personWire
		if err := unmarshalOptional(payload, &wires); err != nil {
			return nil, err
		}
		var people []Person
		for _, w := range wires {
			people = append(people, w.toPerson())
		}
		return People{People: people}, nil
	case PropertyFormula:
		r, err := decodeFormula(payload)
		if err != nil {
			return nil, err
		}
		return Formula{Result: r}, nil
	case PropertyFiles:
		files, err := decodeFiles(payload)
		if err != nil {
			return nil, err
		}
		return Files{Files: files}, nil
	case PropertyRollup:
		return decodeRollup(payload)
	}
	return nil, fmt.Errorf("unhandled property type %q", t)
}

func decodePerson(payload json.RawMessage) (Person, error) {
	var w personWire
	if err := unmarshalOptional(payload, &w); err != nil {
		return Person{}, err
	}
	return w.toPerson(), nil
}

func decodeFormula(payload json.RawMessage) (FormulaResult, error) {
	var f struct {
		Type    string     `json:"type"`
		String  *string    `json:"string"`
		Number  *float64   `json:"number"`
		Boolean *bool      `json:"boolean"`
		Date    *DateValue `json:"date"`
	}
	if err := unmarshalOptional(payload, &f); err != nil {
		return nil, err
	}
	switch f.Type {
	case "string":
		return FormulaString{Value: f.String}, nil
	case "number":
		return FormulaNumber{Value: f.Number}, nil
	case "boolean":
		return FormulaBoolean{Value: f.Boolean}, nil
	case "date":
		return FormulaDate{Value: f.Date}, nil
	}
	return FormulaUnknown{Type: f.Type}, nil
}

func decodeFiles(payload json.RawMessage) ([]FileEntry, error) {
	type hosted struct {
		URL string `json:"url"`
	}
	var wires []struct {
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		File     *hosted `json:"file"`
		External *hosted `json:"external"`
	}
	if err := unmarshalOptional(payload, &wires); err != nil {
		return nil, err
	}
	var files []FileEntry
	for _, w := range wires {
		f := FileEntry{Type: FileType(w.Type), Name: w.Name}
		switch f.Type {
		case FileTypeFile:
			if w.File != nil {
				f.URL = w.File.URL
			}
		case FileTypeExternal:
			if w.External != nil {
				f.URL = w.External.URL
			}
		}
		files = append(files, f)
	}
	return files, nil
}

func decodeRollup(payload json.RawMessage) (Property, error) {
	var r struct {
		Type     string            `json:"type"`
		Function string            `json:"function"`
		Number   *float64          `json:"number"`
		Date     *DateValue        `json:"date"`
		Array    []json.RawMessage `json:"array"`
	}
	if err := unmarshalOptional(payload, &r); err != nil {
		return nil, err
	}

	rollup := Rollup{Function: r.Function}
	switch r.Type {
	case "number":
		rollup.Result = RollupNumber{Value: r.Number}
	case "date":
		rollup.Result = RollupDate{Value: r.Date}
	case "array":
		// A null array is treated as empty.
		items := make([]Property, 0, len(r.Array))
		for i, raw := range r.Array {
			p, err := DecodeProperty(raw)
			if err != nil {
				return nil, fmt.Errorf("rollup array item %d: %w", i, err)
			}
			items = append(items, p)
		}
		rollup.Result = RollupArray{Items: items}
	default:
		rollup.Result = RollupUnknown{Type: r.Type}
	}
	return rollup, nil
}

// unmarshalOptional decodes data into v, leaving v untouched when data is
// missing or JSON null.
func unmarshalOptional(data json.RawMessage, v any) error {
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Properties maps property names to decoded values.
type Properties map[string]Property

// UnmarshalJSON decodes a properties object, one DecodeProperty per entry.
func (ps *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for name, v := range raw {
		p, err := DecodeProperty(v)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = p
	}
	*ps = out
	return nil
}
