package cda

import "encoding/xml"

// Section is a structured body section: measure, reporting parameters or
// patient data.
type Section struct {
	TemplateID []TemplateID `xml:"templateId"`
	Code       Code         `xml:"code"`
	Title      string       `xml:"title"`
	Text       *SectionText `xml:"text"`
	Entry      []Entry      `xml:"entry"`
}

// SectionText is the narrative text block. The measure section carries a
// human-readable table; the other sections leave the element empty.
type SectionText struct {
	Table *Table `xml:"table,omitempty"`
}

// Table is the narrative table of the measure section.
type Table struct {
	Border string    `xml:"border,attr"`
	Width  string    `xml:"width,attr"`
	Thead  TableHead `xml:"thead"`
	Tbody  TableBody `xml:"tbody"`
}

// TableHead holds the header row.
type TableHead struct {
	Tr TableHeadRow `xml:"tr"`
}

// TableHeadRow holds header cells.
type TableHeadRow struct {
	Th []string `xml:"th"`
}

// TableBody holds the body row.
type TableBody struct {
	Tr TableBodyRow `xml:"tr"`
}

// TableBodyRow holds body cells.
type TableBodyRow struct {
	Td []string `xml:"td"`
}

// Entry is one section entry. Exactly one of the fragment pointers is set.
type Entry struct {
	XMLName     xml.Name           `xml:"entry"`
	TypeCode    string             `xml:"typeCode,attr,omitempty"`
	Encounter   *EncounterActivity `xml:"encounter,omitempty"`
	Act         *ActivityAct       `xml:"act,omitempty"`
	Procedure   *ProcedureActivity `xml:"procedure,omitempty"`
	Observation *Observation       `xml:"observation,omitempty"`
	Organizer   *Organizer         `xml:"organizer,omitempty"`
}

// EncounterActivity is the encounter performed entry fragment.
type EncounterActivity struct {
	ClassCode            string              `xml:"classCode,attr"`
	MoodCode             string              `xml:"moodCode,attr"`
	TemplateID           []TemplateID        `xml:"templateId"`
	ID                   ID                  `xml:"id"`
	Code                 Code                `xml:"code"`
	Text                 string              `xml:"text"`
	StatusCode           Code                `xml:"statusCode"`
	EffectiveTime        EffectiveTime       `xml:"effectiveTime"`
	EntryRelationship    []EntryRelationship `xml:"entryRelationship"`
	DischargeDisposition *Code               `xml:"sdtc:dischargeDispositionCode,omitempty"`
}

// ActivityAct is the act-wrapped entry fragment, used for intervention
// performed entries and class-code acts.
type ActivityAct struct {
	ClassCode         string              `xml:"classCode,attr"`
	MoodCode          string              `xml:"moodCode,attr"`
	NegationInd       string              `xml:"negationInd,attr,omitempty"`
	TemplateID        []TemplateID        `xml:"templateId"`
	ID                *ID                 `xml:"id,omitempty"`
	Code              Code                `xml:"code"`
	Text              *string             `xml:"text"`
	StatusCode        *Code               `xml:"statusCode,omitempty"`
	EffectiveTime     *EffectiveTime      `xml:"effectiveTime,omitempty"`
	Author            *FragmentAuthor     `xml:"author,omitempty"`
	EntryRelationship []EntryRelationship `xml:"entryRelationship"`
}

// ProcedureActivity is the procedure performed entry fragment.
type ProcedureActivity struct {
	ClassCode         string              `xml:"classCode,attr"`
	MoodCode          string              `xml:"moodCode,attr"`
	NegationInd       string              `xml:"negationInd,attr,omitempty"`
	TemplateID        []TemplateID        `xml:"templateId"`
	ID                ID                  `xml:"id"`
	Code              Code                `xml:"code"`
	Text              string              `xml:"text"`
	StatusCode        Code                `xml:"statusCode"`
	EffectiveTime     EffectiveTime       `xml:"effectiveTime"`
	Author            *FragmentAuthor     `xml:"author,omitempty"`
	EntryRelationship []EntryRelationship `xml:"entryRelationship"`
}

// Observation is an observation fragment: diagnosis, rank, reason or payer.
type Observation struct {
	ClassCode         string              `xml:"classCode,attr"`
	MoodCode          string              `xml:"moodCode,attr"`
	TemplateID        []TemplateID        `xml:"templateId"`
	ID                *ID                 `xml:"id,omitempty"`
	Code              Code                `xml:"code"`
	StatusCode        *Code               `xml:"statusCode,omitempty"`
	EffectiveTime     *EffectiveTime      `xml:"effectiveTime,omitempty"`
	Value             *Value              `xml:"value,omitempty"`
	EntryRelationship []EntryRelationship `xml:"entryRelationship"`
}

// EntryRelationship nests one fragment under another.
type EntryRelationship struct {
	TypeCode    string       `xml:"typeCode,attr"`
	Observation *Observation `xml:"observation,omitempty"`
	Act         *ActivityAct `xml:"act,omitempty"`
}

// FragmentAuthor is the author dateTime fragment on procedure-shaped entries.
type FragmentAuthor struct {
	TemplateID     []TemplateID `xml:"templateId"`
	Time           TimeValue    `xml:"time"`
	AssignedAuthor NullAuthor   `xml:"assignedAuthor"`
}

// NullAuthor carries the fixed unknown author identity marker.
type NullAuthor struct {
	ID NullID `xml:"id"`
}

// NullID is an id rendered only as a nullFlavor marker.
type NullID struct {
	NullFlavor string `xml:"nullFlavor,attr"`
}

// Organizer is the measure reference organizer in the measure section.
type Organizer struct {
	ClassCode  string       `xml:"classCode,attr"`
	MoodCode   string       `xml:"moodCode,attr"`
	TemplateID []TemplateID `xml:"templateId"`
	ID         ID           `xml:"id"`
	StatusCode Code         `xml:"statusCode"`
	Reference  MeasureRef   `xml:"reference"`
}

// MeasureRef points the organizer at the external eMeasure document.
type MeasureRef struct {
	TypeCode         string           `xml:"typeCode,attr"`
	ExternalDocument ExternalDocument `xml:"externalDocument"`
}

// ExternalDocument identifies the eMeasure.
type ExternalDocument struct {
	ClassCode string `xml:"classCode,attr"`
	MoodCode  string `xml:"moodCode,attr"`
	ID        ID     `xml:"id"`
	Text      string `xml:"text"`
	SetID     ID     `xml:"setId"`
}
