package qrda

import (
	"github.com/clarahealth/qrda-export/internal/fhir/r4"
)

// MeasurePeriod is the inclusive reporting window. Bounds are FHIR dateTime
// strings, validated by the caller before the engine runs.
type MeasurePeriod struct {
	Start string
	End   string
}

// EncounterRecord is an encounter joined to its first diagnosis condition.
// At most one diagnosis is threaded per encounter; further diagnoses on the
// resource are ignored.
type EncounterRecord struct {
	Encounter r4.Encounter
	Diagnosis *r4.Condition
	// DiagnosisRank is 1-based and defaults to 1 when the encounter carries
	// a diagnosis without an explicit rank. Zero when Diagnosis is nil.
	DiagnosisRank int
}

// PatientData is the aggregated clinical history for one patient and one
// measure period. Built fresh per invocation and never mutated afterwards.
type PatientData struct {
	Patient       *r4.Patient
	Encounters    []EncounterRecord
	Interventions []r4.Procedure
	Procedures    []r4.Procedure
	Coverages     []r4.Coverage
}

// HasClinicalData reports whether the aggregate justifies emitting a
// document. Coverages alone never do: a patient with only insurance facts
// and no clinical activity in the period yields no document.
func (d *PatientData) HasClinicalData() bool {
	return len(d.Encounters)+len(d.Interventions)+len(d.Procedures) > 0
}

// ActClass distinguishes a known encounter class code from the "UNK"
// sentinel. The sentinel is a do-not-render flag: an unknown class
// suppresses the class act fragment entirely.
type ActClass struct {
	code  string
	known bool
}

const unknownClassCode = "UNK"

// ClassOf derives the act class from an encounter class coding. An absent
// coding and the sentinel code both map to the unknown class.
func ClassOf(coding *r4.Coding) ActClass {
	if coding == nil || coding.Code == "" || coding.Code == unknownClassCode {
		return ActClass{}
	}
	return ActClass{code: coding.Code, known: true}
}

// Known reports whether the class carries a renderable code.
func (c ActClass) Known() bool { return c.known }

// Code returns the class code; empty for the unknown class.
func (c ActClass) Code() string { return c.code }
