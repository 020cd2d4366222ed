// Package cda provides the serialization-ready document model for QRDA
// Category I documents.
//
// The model maps one-to-one onto the C-CDA XML shape: struct fields with
// ",attr" tags become XML attributes, everything else becomes child elements,
// and slices become repeated siblings. Optional fragments are pointer fields
// left nil when omitted; an omitted fragment produces no element at all.
package cda

import "encoding/xml"

// ID is a C-CDA instance identifier: <id root="..." extension="..."/>.
type ID struct {
	Root      string `xml:"root,attr,omitempty"`
	Extension string `xml:"extension,attr,omitempty"`
}

// TemplateID pins a fragment to a specific implementation guide version.
type TemplateID struct {
	XMLName   xml.Name `xml:"templateId"`
	Root      string   `xml:"root,attr"`
	Extension string   `xml:"extension,attr,omitempty"`
}

// Code is a coded element: <code code="..." codeSystem="..."/>. The code
// attribute is always emitted, even when empty: a source field with no value
// falls back to code="" rather than dropping the attribute, matching the
// empty-string fallback used on time values.
type Code struct {
	Code           string `xml:"code,attr"`
	CodeSystem     string `xml:"codeSystem,attr,omitempty"`
	CodeSystemName string `xml:"codeSystemName,attr,omitempty"`
	DisplayName    string `xml:"displayName,attr,omitempty"`
}

// Value is a typed observation value (xsi:type CD or INT).
type Value struct {
	XSIType        string `xml:"xsi:type,attr,omitempty"`
	Code           string `xml:"code,attr,omitempty"`
	CodeSystem     string `xml:"codeSystem,attr,omitempty"`
	CodeSystemName string `xml:"codeSystemName,attr,omitempty"`
	Value          string `xml:"value,attr,omitempty"`
}

// TimeValue is a point-in-time element. A nil Value pointer omits the value
// attribute entirely (the nullFlavor rendering); a pointer to "" emits
// value="" (the empty-string fallback rendering). The implementation guide
// uses both absent encodings and they are not interchangeable.
type TimeValue struct {
	Value      *string `xml:"value,attr"`
	NullFlavor string  `xml:"nullFlavor,attr,omitempty"`
}

// Time returns a TimeValue carrying the given value attribute.
func Time(value string) *TimeValue {
	return &TimeValue{Value: &value}
}

// TimeUnknown returns a TimeValue carrying nullFlavor="UNK" and no value.
func TimeUnknown() *TimeValue {
	return &TimeValue{NullFlavor: "UNK"}
}

// EffectiveTime is an interval element with optional point value and
// low/high bounds.
type EffectiveTime struct {
	Value      *string    `xml:"value,attr"`
	NullFlavor string     `xml:"nullFlavor,attr,omitempty"`
	Low        *TimeValue `xml:"low,omitempty"`
	High       *TimeValue `xml:"high,omitempty"`
}

// Telecom is a telecommunication address: <telecom use="HP" value="tel:..."/>.
type Telecom struct {
	XMLName xml.Name `xml:"telecom"`
	Use     string   `xml:"use,attr,omitempty"`
	Value   string   `xml:"value,attr,omitempty"`
}

// Addr is a postal address block.
type Addr struct {
	XMLName           xml.Name `xml:"addr"`
	Use               string   `xml:"use,attr,omitempty"`
	StreetAddressLine string   `xml:"streetAddressLine"`
	City              string   `xml:"city"`
	State             string   `xml:"state"`
	PostalCode        string   `xml:"postalCode"`
	Country           string   `xml:"country"`
}

// Name is a person name with given and family parts.
type Name struct {
	XMLName xml.Name `xml:"name"`
	Given   string   `xml:"given"`
	Family  string   `xml:"family"`
}
