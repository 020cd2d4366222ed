package qrda

import (
	"context"
	"errors"
	"testing"

	"github.com/clarahealth/qrda-export/internal/fhir/fhirtest"
	"github.com/clarahealth/qrda-export/internal/fhir/r4"
)

var testPeriod = MeasurePeriod{Start: "2026-01-01", End: "2026-12-31"}

func testStore() *fhirtest.Store {
	return &fhirtest.Store{
		Patients: []r4.Patient{{
			ResourceType: "Patient",
			ID:           "p1",
			Name:         []r4.HumanName{{Family: "Doe", Given: []string{"Jane"}}},
			Gender:       "female",
		}},
	}
}

func encounterOn(id, start string) r4.Encounter {
	return r4.Encounter{
		ResourceType: "Encounter",
		ID:           id,
		Subject:      &r4.Reference{Reference: "Patient/p1"},
		Period:       &r4.Period{Start: start, End: start},
	}
}

func TestAggregateBoundariesInclusive(t *testing.T) {
	store := testStore()
	store.Encounters = []r4.Encounter{
		encounterOn("at-start", "2026-01-01"),
		encounterOn("at-end", "2026-12-31"),
		encounterOn("before", "2025-12-31"),
		encounterOn("after", "2027-01-01"),
	}

	agg := NewAggregator(store, nil)
	data, err := agg.Aggregate(context.Background(), "p1", testPeriod)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if len(data.Encounters) != 2 {
		t.Fatalf("expected 2 encounters in window, got %d", len(data.Encounters))
	}
	got := map[string]bool{}
	for _, rec := range data.Encounters {
		got[rec.Encounter.ID] = true
	}
	if !got["at-start"] || !got["at-end"] {
		t.Errorf("boundary encounters missing: %v", got)
	}
}

func TestAggregateJoinsDiagnosis(t *testing.T) {
	store := testStore()
	enc := encounterOn("e1", "2026-06-01")
	enc.Diagnosis = []r4.EncounterDiagnosis{{
		Condition: &r4.Reference{Reference: "Condition/c1"},
	}}
	store.Encounters = []r4.Encounter{enc}
	store.Conditions = []r4.Condition{{
		ResourceType: "Condition",
		ID:           "c1",
		Code: &r4.CodeableConcept{Coding: []r4.Coding{
			{System: r4.SystemSNOMED, Code: "10725009"},
		}},
	}}

	agg := NewAggregator(store, nil)
	data, err := agg.Aggregate(context.Background(), "p1", testPeriod)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	rec := data.Encounters[0]
	if rec.Diagnosis == nil {
		t.Fatal("expected diagnosis to be joined")
	}
	if rec.Diagnosis.ID != "c1" {
		t.Errorf("joined wrong condition: %s", rec.Diagnosis.ID)
	}
	if rec.DiagnosisRank != 1 {
		t.Errorf("rank should default to 1, got %d", rec.DiagnosisRank)
	}
}

func TestAggregateExplicitDiagnosisRank(t *testing.T) {
	store := testStore()
	enc := encounterOn("e1", "2026-06-01")
	enc.Diagnosis = []r4.EncounterDiagnosis{{
		Condition: &r4.Reference{Reference: "Condition/c1"},
		Rank:      3,
	}}
	store.Encounters = []r4.Encounter{enc}
	store.Conditions = []r4.Condition{{ResourceType: "Condition", ID: "c1"}}

	agg := NewAggregator(store, nil)
	data, err := agg.Aggregate(context.Background(), "p1", testPeriod)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if data.Encounters[0].DiagnosisRank != 3 {
		t.Errorf("expected rank 3, got %d", data.Encounters[0].DiagnosisRank)
	}
}

func TestAggregateSplitsProceduresByCategory(t *testing.T) {
	store := testStore()
	store.Procedures = []r4.Procedure{
		{
			ResourceType:      "Procedure",
			ID:                "intervention-1",
			Subject:           &r4.Reference{Reference: "Patient/p1"},
			Category:          &r4.CodeableConcept{Coding: []r4.Coding{{Code: CategoryIntervention}}},
			PerformedDateTime: "2026-06-01",
		},
		{
			ResourceType:      "Procedure",
			ID:                "procedure-1",
			Subject:           &r4.Reference{Reference: "Patient/p1"},
			Category:          &r4.CodeableConcept{Coding: []r4.Coding{{Code: CategoryDiagnosticProcedure}}},
			PerformedDateTime: "2026-06-02",
		},
	}

	agg := NewAggregator(store, nil)
	data, err := agg.Aggregate(context.Background(), "p1", testPeriod)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if len(data.Interventions) != 1 || data.Interventions[0].ID != "intervention-1" {
		t.Errorf("interventions wrong: %+v", data.Interventions)
	}
	if len(data.Procedures) != 1 || data.Procedures[0].ID != "procedure-1" {
		t.Errorf("procedures wrong: %+v", data.Procedures)
	}
}

func TestAggregateCoverageNotDateFiltered(t *testing.T) {
	store := testStore()
	store.Coverages = []r4.Coverage{{
		ResourceType: "Coverage",
		ID:           "cov1",
		Beneficiary:  &r4.Reference{Reference: "Patient/p1"},
		Period:       &r4.Period{Start: "2010-01-01", End: "2011-01-01"},
	}}

	agg := NewAggregator(store, nil)
	data, err := agg.Aggregate(context.Background(), "p1", testPeriod)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(data.Coverages) != 1 {
		t.Errorf("coverage outside window must still be returned, got %d", len(data.Coverages))
	}
}

func TestAggregateFailedReadAborts(t *testing.T) {
	store := testStore()
	readErr := errors.New("server unavailable")
	store.ReadErr = readErr

	agg := NewAggregator(store, nil)
	data, err := agg.Aggregate(context.Background(), "p1", testPeriod)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, readErr) {
		t.Errorf("error should wrap the store failure: %v", err)
	}
	if data != nil {
		t.Error("no partial result on failure")
	}
}

func TestHasClinicalData(t *testing.T) {
	empty := &PatientData{Coverages: []r4.Coverage{{ID: "cov1"}}}
	if empty.HasClinicalData() {
		t.Error("coverage alone must not count as clinical data")
	}

	withEnc := &PatientData{Encounters: []EncounterRecord{{}}}
	if !withEnc.HasClinicalData() {
		t.Error("an encounter counts as clinical data")
	}
}
