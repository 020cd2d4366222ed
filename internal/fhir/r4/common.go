// Package r4 provides FHIR R4 data structures for the QRDA export engine.
//
// Only the resource slice touched by the CMS68v14 measure is modeled:
// Patient, Encounter, Condition, Procedure and Coverage, plus the datatypes
// they carry. Date and dateTime fields are kept as FHIR strings and threaded
// through to the document assembler untouched.
package r4

// Well-known code and identifier systems.
const (
	SystemSNOMED  = "http://snomed.info/sct"
	SystemLOINC   = "http://loinc.org"
	SystemCPT     = "http://www.ama-assn.org/go/cpt"
	SystemActCode = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	SystemSOP     = "https://nahdo.org/sopt"
)

// Extension URLs read by the export engine.
const (
	ExtPatientBirthTime     = "http://hl7.org/fhir/StructureDefinition/patient-birthTime"
	ExtUSCoreRace           = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-race"
	ExtUSCoreEthnicity      = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-ethnicity"
	ExtEncounterDescription = "https://fhir.clarahealth.com/StructureDefinition/encounter-description"
	ExtProcedureRank        = "https://fhir.clarahealth.com/StructureDefinition/procedure-rank"
)

// Meta contains metadata about a resource.
type Meta struct {
	VersionID   string   `json:"versionId,omitempty"`
	LastUpdated string   `json:"lastUpdated,omitempty"`
	Source      string   `json:"source,omitempty"`
	Profile     []string `json:"profile,omitempty"`
}

// Identifier represents a FHIR Identifier.
type Identifier struct {
	Use    string           `json:"use,omitempty"`
	Type   *CodeableConcept `json:"type,omitempty"`
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
}

// CodeableConcept represents a concept with text and codings.
type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// FirstCoding returns the first coding of the concept, or nil.
func (c *CodeableConcept) FirstCoding() *Coding {
	if c == nil || len(c.Coding) == 0 {
		return nil
	}
	return &c.Coding[0]
}

// Coding represents a code from a terminology system.
type Coding struct {
	System  string `json:"system,omitempty"`
	Version string `json:"version,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// Reference represents a reference to another resource.
type Reference struct {
	Reference string `json:"reference,omitempty"`
	Type      string `json:"type,omitempty"`
	Display   string `json:"display,omitempty"`
}

// ID returns the id portion of a relative reference such as "Condition/abc".
func (r *Reference) ID() string {
	if r == nil {
		return ""
	}
	ref := r.Reference
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[i+1:]
		}
	}
	return ref
}

// Period represents a time period. Bounds are FHIR dateTime strings.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// HumanName represents a person's name.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
}

// Address represents a postal address.
type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
}

// ContactPoint represents a phone number, email address, etc.
type ContactPoint struct {
	System string `json:"system,omitempty"` // phone | fax | email | url
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

// Extension represents a FHIR extension. Only the value types the engine
// reads are modeled.
type Extension struct {
	URL           string      `json:"url"`
	ValueString   string      `json:"valueString,omitempty"`
	ValueDateTime string      `json:"valueDateTime,omitempty"`
	ValueInteger  *int        `json:"valueInteger,omitempty"`
	ValueCoding   *Coding     `json:"valueCoding,omitempty"`
	Extension     []Extension `json:"extension,omitempty"`
}

// FindExtension returns the first extension with the given URL.
func FindExtension(exts []Extension, url string) *Extension {
	for i := range exts {
		if exts[i].URL == url {
			return &exts[i]
		}
	}
	return nil
}

// PrimitiveElement carries extensions attached to a primitive field,
// e.g. the _birthDate companion of Patient.birthDate.
type PrimitiveElement struct {
	Extension []Extension `json:"extension,omitempty"`
}
