// Package fhir provides access to the clinical FHIR store that backs the
// QRDA export engine.
package fhir

import (
	"context"
	"errors"

	"github.com/clarahealth/qrda-export/internal/fhir/r4"
)

// ErrNotFound indicates the requested resource does not exist.
var ErrNotFound = errors.New("fhir: resource not found")

// DateRange is an inclusive date window: start <= date <= end.
// Bounds are FHIR dateTime strings.
type DateRange struct {
	Start string
	End   string
}

// ClinicalStore is the read/search collaborator of the export engine.
//
// Implementations guarantee server-side inclusive-boundary date filtering and
// ascending date sort; callers do not re-filter or re-sort defensively.
type ClinicalStore interface {
	// ReadPatient returns the patient by id, or ErrNotFound.
	ReadPatient(ctx context.Context, id string) (*r4.Patient, error)

	// SearchEncounters returns the patient's encounters within the inclusive
	// date range, sorted ascending by date, together with any Condition
	// resources referenced as encounter diagnoses (fetched in the same batch).
	SearchEncounters(ctx context.Context, patientID string, dr DateRange) ([]r4.Encounter, []r4.Condition, error)

	// SearchProcedures returns the patient's procedures with the given SNOMED
	// category code within the inclusive date range, sorted ascending by date.
	SearchProcedures(ctx context.Context, patientID, categoryCode string, dr DateRange) ([]r4.Procedure, error)

	// SearchCoverages returns all coverages for the beneficiary. Coverage is
	// never date-filtered.
	SearchCoverages(ctx context.Context, beneficiaryID string) ([]r4.Coverage, error)
}
