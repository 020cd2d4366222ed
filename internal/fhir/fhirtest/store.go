// Package fhirtest provides an in-memory ClinicalStore for package tests.
//
// The store honors the search collaborator contract the production client
// delegates to the FHIR server: inclusive date boundaries on both ends and
// ascending date sort.
package fhirtest

import (
	"context"
	"sort"
	"time"

	"github.com/clarahealth/qrda-export/internal/fhir"
	"github.com/clarahealth/qrda-export/internal/fhir/r4"
)

// Store is an in-memory ClinicalStore. Zero value is usable.
type Store struct {
	Patients   []r4.Patient
	Encounters []r4.Encounter
	Conditions []r4.Condition
	Procedures []r4.Procedure
	Coverages  []r4.Coverage

	// ReadErr, when set, is returned by every operation. Used to exercise
	// failure propagation.
	ReadErr error
}

// ReadPatient implements fhir.ClinicalStore.
func (s *Store) ReadPatient(_ context.Context, id string) (*r4.Patient, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	for i := range s.Patients {
		if s.Patients[i].ID == id {
			p := s.Patients[i]
			return &p, nil
		}
	}
	return nil, fhir.ErrNotFound
}

// SearchEncounters implements fhir.ClinicalStore.
func (s *Store) SearchEncounters(_ context.Context, patientID string, dr fhir.DateRange) ([]r4.Encounter, []r4.Condition, error) {
	if s.ReadErr != nil {
		return nil, nil, s.ReadErr
	}

	var matched []r4.Encounter
	for _, enc := range s.Encounters {
		if enc.Subject.ID() != patientID {
			continue
		}
		var dates []string
		if enc.Period != nil {
			dates = append(dates, enc.Period.Start, enc.Period.End)
		}
		if anyInRange(dates, dr) {
			matched = append(matched, enc)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return parseWhen(encounterDate(&matched[i])).Before(parseWhen(encounterDate(&matched[j])))
	})

	// _include=Encounter:diagnosis pulls referenced conditions into the batch.
	var included []r4.Condition
	for _, enc := range matched {
		for _, diag := range enc.Diagnosis {
			if cond := s.findCondition(diag.Condition.ID()); cond != nil {
				included = append(included, *cond)
			}
		}
	}
	return matched, included, nil
}

// SearchProcedures implements fhir.ClinicalStore.
func (s *Store) SearchProcedures(_ context.Context, patientID, categoryCode string, dr fhir.DateRange) ([]r4.Procedure, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}

	var matched []r4.Procedure
	for _, proc := range s.Procedures {
		if proc.Subject.ID() != patientID {
			continue
		}
		coding := proc.Category.FirstCoding()
		if coding == nil || coding.Code != categoryCode {
			continue
		}
		var dates []string
		dates = append(dates, proc.PerformedDateTime)
		if proc.PerformedPeriod != nil {
			dates = append(dates, proc.PerformedPeriod.Start)
		}
		if anyInRange(dates, dr) {
			matched = append(matched, proc)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return parseWhen(matched[i].EffectiveDate()).Before(parseWhen(matched[j].EffectiveDate()))
	})
	return matched, nil
}

// SearchCoverages implements fhir.ClinicalStore. Never date-filtered.
func (s *Store) SearchCoverages(_ context.Context, beneficiaryID string) ([]r4.Coverage, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	var matched []r4.Coverage
	for _, cov := range s.Coverages {
		if cov.Beneficiary.ID() == beneficiaryID {
			matched = append(matched, cov)
		}
	}
	return matched, nil
}

func (s *Store) findCondition(id string) *r4.Condition {
	for i := range s.Conditions {
		if s.Conditions[i].ID == id {
			return &s.Conditions[i]
		}
	}
	return nil
}

func encounterDate(enc *r4.Encounter) string {
	if enc.Period == nil {
		return ""
	}
	if enc.Period.Start != "" {
		return enc.Period.Start
	}
	return enc.Period.End
}

// anyInRange reports whether any populated date satisfies
// dr.Start <= d <= dr.End, boundaries inclusive on both ends.
func anyInRange(dates []string, dr fhir.DateRange) bool {
	lo := parseWhen(dr.Start)
	hi := parseWhen(dr.End)
	for _, d := range dates {
		if d == "" {
			continue
		}
		t := parseWhen(d)
		if !t.Before(lo) && !t.After(hi) {
			return true
		}
	}
	return false
}

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseWhen(s string) time.Time {
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
