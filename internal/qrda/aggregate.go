package qrda

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/clarahealth/qrda-export/internal/fhir"
	"github.com/clarahealth/qrda-export/internal/fhir/r4"
)

// Aggregator retrieves and partitions the clinical history the measure cares
// about. Reads are sequential and all-or-nothing: any failed read aborts the
// whole aggregation and no partial result is ever returned.
type Aggregator struct {
	store  fhir.ClinicalStore
	logger *zap.Logger
	tracer trace.Tracer
}

// NewAggregator creates an aggregator over the given clinical store.
func NewAggregator(store fhir.ClinicalStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:  store,
		logger: logger,
		tracer: otel.Tracer("qrda-aggregator"),
	}
}

// Aggregate fetches the patient and the four clinical resource classes for
// the period. Date filtering (inclusive on both bounds) and ascending sort
// are guaranteed by the store contract and not re-applied here.
func (a *Aggregator) Aggregate(ctx context.Context, patientID string, period MeasurePeriod) (*PatientData, error) {
	ctx, span := a.tracer.Start(ctx, "qrda_aggregate",
		trace.WithAttributes(attribute.String("patient_id", patientID)))
	defer span.End()

	patient, err := a.store.ReadPatient(ctx, patientID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read patient %s: %w", patientID, err)
	}

	window := fhir.DateRange{Start: period.Start, End: period.End}

	encounters, conditions, err := a.store.SearchEncounters(ctx, patientID, window)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search encounters: %w", err)
	}

	interventions, err := a.store.SearchProcedures(ctx, patientID, CategoryIntervention, window)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search interventions: %w", err)
	}

	procedures, err := a.store.SearchProcedures(ctx, patientID, CategoryDiagnosticProcedure, window)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search procedures: %w", err)
	}

	// Coverage is intentionally unfiltered by date; payer facts are reported
	// as-is even when entirely outside the measure window.
	coverages, err := a.store.SearchCoverages(ctx, patientID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search coverages: %w", err)
	}

	data := &PatientData{
		Patient:       patient,
		Encounters:    joinDiagnoses(encounters, conditions),
		Interventions: interventions,
		Procedures:    procedures,
		Coverages:     coverages,
	}

	span.SetAttributes(
		attribute.Int("encounters", len(data.Encounters)),
		attribute.Int("interventions", len(data.Interventions)),
		attribute.Int("procedures", len(data.Procedures)),
		attribute.Int("coverages", len(data.Coverages)))

	a.logger.Debug("aggregated patient data",
		zap.String("patient_id", patientID),
		zap.Int("encounters", len(data.Encounters)),
		zap.Int("interventions", len(data.Interventions)),
		zap.Int("procedures", len(data.Procedures)),
		zap.Int("coverages", len(data.Coverages)))

	return data, nil
}

// joinDiagnoses threads each encounter's first diagnosis condition onto the
// encounter record. Only the first diagnosis is considered; the rank defaults
// to 1 when a diagnosis exists without an explicit rank.
func joinDiagnoses(encounters []r4.Encounter, conditions []r4.Condition) []EncounterRecord {
	records := make([]EncounterRecord, 0, len(encounters))
	for _, enc := range encounters {
		rec := EncounterRecord{Encounter: enc}
		if len(enc.Diagnosis) > 0 && enc.Diagnosis[0].Condition != nil {
			wantID := enc.Diagnosis[0].Condition.ID()
			for i := range conditions {
				if conditions[i].ID == wantID {
					cond := conditions[i]
					rec.Diagnosis = &cond
					rec.DiagnosisRank = enc.Diagnosis[0].Rank
					if rec.DiagnosisRank == 0 {
						rec.DiagnosisRank = 1
					}
					break
				}
			}
		}
		records = append(records, rec)
	}
	return records
}
