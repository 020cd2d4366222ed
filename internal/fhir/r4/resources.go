package r4

import (
	"encoding/json"
	"fmt"
)

// Patient represents a FHIR R4 Patient resource.
type Patient struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Meta         *Meta             `json:"meta,omitempty"`
	Identifier   []Identifier      `json:"identifier,omitempty"`
	Name         []HumanName       `json:"name,omitempty"`
	Telecom      []ContactPoint    `json:"telecom,omitempty"`
	Gender       string            `json:"gender,omitempty"`
	BirthDate    string            `json:"birthDate,omitempty"`
	BirthDateExt *PrimitiveElement `json:"_birthDate,omitempty"`
	Address      []Address         `json:"address,omitempty"`
	Extension    []Extension       `json:"extension,omitempty"`
}

// BirthTime returns the precise birth date-time carried by the birthTime
// extension on the birthDate element, or "" when absent.
func (p *Patient) BirthTime() string {
	if p.BirthDateExt == nil {
		return ""
	}
	if ext := FindExtension(p.BirthDateExt.Extension, ExtPatientBirthTime); ext != nil {
		return ext.ValueDateTime
	}
	return ""
}

// OMBCategory returns the ombCategory coding of a US Core race or ethnicity
// extension, or nil when the extension or its category is absent.
func (p *Patient) OMBCategory(url string) *Coding {
	ext := FindExtension(p.Extension, url)
	if ext == nil {
		return nil
	}
	if omb := FindExtension(ext.Extension, "ombCategory"); omb != nil {
		return omb.ValueCoding
	}
	return nil
}

// Encounter represents a FHIR R4 Encounter resource.
type Encounter struct {
	ResourceType    string                    `json:"resourceType"`
	ID              string                    `json:"id,omitempty"`
	Meta            *Meta                     `json:"meta,omitempty"`
	Status          string                    `json:"status,omitempty"`
	Class           *Coding                   `json:"class,omitempty"`
	Type            []CodeableConcept         `json:"type,omitempty"`
	Subject         *Reference                `json:"subject,omitempty"`
	Period          *Period                   `json:"period,omitempty"`
	Diagnosis       []EncounterDiagnosis      `json:"diagnosis,omitempty"`
	Hospitalization *EncounterHospitalization `json:"hospitalization,omitempty"`
	Extension       []Extension               `json:"extension,omitempty"`
}

// EncounterDiagnosis links an encounter to a diagnosis condition.
type EncounterDiagnosis struct {
	Condition *Reference `json:"condition,omitempty"`
	Rank      int        `json:"rank,omitempty"`
}

// EncounterHospitalization carries admission/discharge details.
type EncounterHospitalization struct {
	DischargeDisposition *CodeableConcept `json:"dischargeDisposition,omitempty"`
}

// Description returns the free-text encounter description extension value.
func (e *Encounter) Description() string {
	if ext := FindExtension(e.Extension, ExtEncounterDescription); ext != nil {
		return ext.ValueString
	}
	return ""
}

// Condition represents a FHIR R4 Condition resource.
type Condition struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Meta         *Meta            `json:"meta,omitempty"`
	Code         *CodeableConcept `json:"code,omitempty"`
	Subject      *Reference       `json:"subject,omitempty"`
}

// Procedure represents a FHIR R4 Procedure resource. The measure uses the
// same shape for interventions and diagnostic procedures, split by category.
type Procedure struct {
	ResourceType      string           `json:"resourceType"`
	ID                string           `json:"id,omitempty"`
	Meta              *Meta            `json:"meta,omitempty"`
	Status            string           `json:"status,omitempty"`
	StatusReason      *CodeableConcept `json:"statusReason,omitempty"`
	Category          *CodeableConcept `json:"category,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	PerformedDateTime string           `json:"performedDateTime,omitempty"`
	PerformedPeriod   *Period          `json:"performedPeriod,omitempty"`
	Extension         []Extension      `json:"extension,omitempty"`
}

// Rank returns the procedure rank extension value, or nil when absent.
func (p *Procedure) Rank() *int {
	if ext := FindExtension(p.Extension, ExtProcedureRank); ext != nil {
		return ext.ValueInteger
	}
	return nil
}

// EffectiveDate returns the date used for period filtering and ordering:
// performedDateTime when populated, else the performed period start.
func (p *Procedure) EffectiveDate() string {
	if p.PerformedDateTime != "" {
		return p.PerformedDateTime
	}
	if p.PerformedPeriod != nil {
		return p.PerformedPeriod.Start
	}
	return ""
}

// Coverage represents a FHIR R4 Coverage resource.
type Coverage struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Meta         *Meta            `json:"meta,omitempty"`
	Status       string           `json:"status,omitempty"`
	Type         *CodeableConcept `json:"type,omitempty"`
	Beneficiary  *Reference       `json:"beneficiary,omitempty"`
	Period       *Period          `json:"period,omitempty"`
}

// OperationOutcome represents a FHIR R4 OperationOutcome resource.
type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue,omitempty"`
}

// OperationOutcomeIssue is a single issue within an OperationOutcome.
type OperationOutcomeIssue struct {
	Severity    string           `json:"severity,omitempty"`
	Code        string           `json:"code,omitempty"`
	Details     *CodeableConcept `json:"details,omitempty"`
	Diagnostics string           `json:"diagnostics,omitempty"`
}

// Bundle represents a FHIR R4 search result Bundle.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type,omitempty"`
	Total        *int          `json:"total,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

// BundleEntry is a single entry of a Bundle. The resource is kept raw until
// the caller decodes it by resourceType.
type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Search   *BundleSearch   `json:"search,omitempty"`
}

// BundleSearch carries the search mode of a bundle entry.
type BundleSearch struct {
	Mode string `json:"mode,omitempty"` // match | include
}

// ResourceType peeks at the resourceType of a raw bundle entry resource.
func (e *BundleEntry) ResourceType() (string, error) {
	var probe struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(e.Resource, &probe); err != nil {
		return "", fmt.Errorf("probe resourceType: %w", err)
	}
	return probe.ResourceType, nil
}
