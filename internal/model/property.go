package model

import "encoding/json"

// PropertyType is the discriminant of a page property.
type PropertyType string

const (
	PropertyTitle          PropertyType = "title"
	PropertyRichText       PropertyType = "rich_text"
	PropertyURL            PropertyType = "url"
	PropertySelect         PropertyType = "select"
	PropertyMultiSelect    PropertyType = "multi_select"
	PropertyDate           PropertyType = "date"
	PropertyCheckbox       PropertyType = "checkbox"
	PropertyEmail          PropertyType = "email"
	PropertyPhoneNumber    PropertyType = "phone_number"
	PropertyNumber         PropertyType = "number"
	PropertyStatus         PropertyType = "status"
	PropertyCreatedTime    PropertyType = "created_time"
	PropertyLastEditedTime PropertyType = "last_edited_time"
	PropertyCreatedBy      PropertyType = "created_by"
	PropertyLastEditedBy   PropertyType = "last_edited_by"
	PropertyUniqueID       PropertyType = "unique_id"
	PropertyRelation       PropertyType = "relation"
	PropertyPeople         PropertyType = "people"
	PropertyFormula        PropertyType = "formula"
	PropertyFiles          PropertyType = "files"
	PropertyRollup         PropertyType = "rollup"
)

// String returns the string representation of the property type.
func (t PropertyType) String() string {
	return string(t)
}

// IsKnown reports whether t is one of the property types this package models.
func (t PropertyType) IsKnown() bool {
	switch t {
	case PropertyTitle, PropertyRichText, PropertyURL, PropertySelect, PropertyMultiSelect,
		PropertyDate, PropertyCheckbox, PropertyEmail, PropertyPhoneNumber, PropertyNumber,
		PropertyStatus, PropertyCreatedTime, PropertyLastEditedTime, PropertyCreatedBy,
		PropertyLastEditedBy, PropertyUniqueID, PropertyRelation, PropertyPeople,
		PropertyFormula, PropertyFiles, PropertyRollup:
		return true
	}
	return false
}

// Property is one typed field of a page. The set of implementations is closed:
// it is exactly the property structs declared in this file plus Unknown.
type Property interface {
	PropertyType() PropertyType
	isProperty()
}

// TextRun is one run of rich text. Only the plain-text projection is kept.
type TextRun struct {
	PlainText string  `json:"plain_text"`
	Href      *string `json:"href,omitempty"`
}

// SelectOption is a named option of a select, multi_select or status property.
type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// DateValue is a date or date range. Start is nil only on malformed input.
type DateValue struct {
	Start    *string `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone,omitempty"`
}

// RelationItem references a related page.
type RelationItem struct {
	ID string `json:"id"`
}

type Title struct {
	Runs []TextRun
}

type RichText struct {
	Runs []TextRun
}

type URL struct {
	Value *string
}

type Select struct {
	Option *SelectOption
}

// MultiSelect holds the selected options; nil means the value is absent.
type MultiSelect struct {
	Options []SelectOption
}

type Date struct {
	Value *DateValue
}

type Checkbox struct {
	Checked bool
}

type Email struct {
	Value *string
}

type PhoneNumber struct {
	Value *string
}

type Number struct {
	Value *float64
}

type Status struct {
	Option *SelectOption
}

type CreatedTime struct {
	Value *string
}

type LastEditedTime struct {
	Value *string
}

type CreatedBy struct {
	Person Person
}

type LastEditedBy struct {
	Person Person
}

// UniqueID is an auto-incrementing identifier with an optional prefix.
type UniqueID struct {
	Number *int64
	Prefix *string
}

type Relation struct {
	Items   []RelationItem
	HasMore bool
}

type People struct {
	People []Person
}

// Formula is a computed property; Result carries the typed outcome.
type Formula struct {
	Result FormulaResult
}

type Files struct {
	Files []FileEntry
}

// Rollup aggregates values from related pages.
type Rollup struct {
	Function string
	Result   RollupResult
}

// Unknown is a property whose type this package does not model. Raw holds the
// property JSON as received.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (Title) PropertyType() PropertyType          { return PropertyTitle }
func (RichText) PropertyType() PropertyType       { return PropertyRichText }
func (URL) PropertyType() PropertyType            { return PropertyURL }
func (Select) PropertyType() PropertyType         { return PropertySelect }
func (MultiSelect) PropertyType() PropertyType    { return PropertyMultiSelect }
func (Date) PropertyType() PropertyType           { return PropertyDate }
func (Checkbox) PropertyType() PropertyType       { return PropertyCheckbox }
func (Email) PropertyType() PropertyType          { return PropertyEmail }
func (PhoneNumber) PropertyType() PropertyType    { return PropertyPhoneNumber }
func (Number) PropertyType() PropertyType         { return PropertyNumber }
func (Status) PropertyType() PropertyType         { return PropertyStatus }
func (CreatedTime) PropertyType() PropertyType    { return PropertyCreatedTime }
func (LastEditedTime) PropertyType() PropertyType { return PropertyLastEditedTime }
func (CreatedBy) PropertyType() PropertyType      { return PropertyCreatedBy }
func (LastEditedBy) PropertyType() PropertyType   { return PropertyLastEditedBy }
func (UniqueID) PropertyType() PropertyType       { return PropertyUniqueID }
func (Relation) PropertyType() PropertyType       { return PropertyRelation }
func (People) PropertyType() PropertyType         { return PropertyPeople }
func (Formula) PropertyType() PropertyType        { return PropertyFormula }
func (Files) PropertyType() PropertyType          { return PropertyFiles }
func (Rollup) PropertyType() PropertyType         { return PropertyRollup }
func (u Unknown) PropertyType() PropertyType      { return PropertyType(u.Type) }

func (Title) isProperty()          {}
func (RichText) isProperty()       {}
func (URL) isProperty()            {}
func (Select) isProperty()         {}
func (MultiSelect) isProperty()    {}
func (Date) isProperty()           {}
func (Checkbox) isProperty()       {}
func (Email) isProperty()          {}
func (PhoneNumber) isProperty()    {}
func (Number) isProperty()         {}
func (Status) isProperty()         {}
func (CreatedTime) isProperty()    {}
func (LastEditedTime) isProperty() {}
func (CreatedBy) isProperty()      {}
func (LastEditedBy) isProperty()   {}
func (UniqueID) isProperty()       {}
func (Relation) isProperty()       {}
func (People) isProperty()         {}
func (Formula) isProperty()        {}
func (Files) isProperty()          {}
func (Rollup) isProperty()         {}
func (Unknown) isProperty()        {}

// FormulaResult is the typed result of a formula property.
type FormulaResult interface {
	FormulaType() string
	isFormulaResult()
}

type FormulaString struct {
	Value *string
}

type FormulaNumber struct {
	Value *float64
}

type FormulaBoolean struct {
	Value *bool
}

type FormulaDate struct {
	Value *DateValue
}

// FormulaUnknown is a formula result type this package does not model.
type FormulaUnknown struct {
	Type string
}

func (FormulaString) FormulaType() string    { return "string" }
func (FormulaNumber) FormulaType() string    { return "number" }
func (FormulaBoolean) FormulaType() string   { return "boolean" }
func (FormulaDate) FormulaType() string      { return "date" }
func (f FormulaUnknown) FormulaType() string { return f.Type }

func (FormulaString) isFormulaResult()  {}
func (FormulaNumber) isFormulaResult()  {}
func (FormulaBoolean) isFormulaResult() {}
func (FormulaDate) isFormulaResult()    {}
func (FormulaUnknown) isFormulaResult() {}

// RollupResult is the typed result of a rollup property.
type RollupResult interface {
	RollupType() string
	isRollupResult()
}

type RollupNumber struct {
	Value *float64
}

type RollupDate struct {
	Value *DateValue
}

// RollupArray holds the rolled-up property values of the related pages.
type RollupArray struct {
	Items []Property
}

// RollupUnknown is a rollup result type this package does not model
// (e.g. "incomplete", "unsupported").
type RollupUnknown struct {
	Type string
}

func (RollupNumber) RollupType() string    { return "number" }
func (RollupDate) RollupType() string      { return "date" }
func (RollupArray) RollupType() string     { return "array" }
func (r RollupUnknown) RollupType() string { return r.Type }

func (RollupNumber) isRollupResult()  {}
func (RollupDate) isRollupResult()    {}
func (RollupArray) isRollupResult()   {}
func (RollupUnknown) isRollupResult() {}

// FileType says where a file entry is hosted.
type FileType string

const (
	FileTypeFile     FileType = "file"
	FileTypeExternal FileType = "external"
)

// FileEntry is one file attached to a files property. URL is set only for the
// file and external types.
type FileEntry struct {
	Type FileType
	Name string
	URL  string
}
