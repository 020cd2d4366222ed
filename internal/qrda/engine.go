package qrda

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/clarahealth/qrda-export/internal/fhir"
	"github.com/clarahealth/qrda-export/internal/qrda/cda"
)

// Engine generates one QRDA Category I document per patient: aggregate the
// patient's clinical data for the measure period, gate on emptiness, assemble
// the document and serialize it.
type Engine struct {
	aggregator *Aggregator
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the document creation clock. Tests use this to pin the
// header effectiveTime.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the fresh-id source. Tests use this to make
// generated ids deterministic.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine builds an Engine over the given clinical store.
func NewEngine(store fhir.ClinicalStore, opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		tracer: otel.Tracer("qrda.engine"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.aggregator = NewAggregator(store, e.logger)
	return e
}

// Result is one generated document plus the fact counts that went into it.
type Result struct {
	PatientID string
	Document  []byte

	Encounters    int
	Interventions int
	Procedures    int
	Coverages     int
}

// Generate produces the serialized QRDA document for one patient, or
// (nil, nil) when the patient has no reportable clinical data in the period.
// The nil, nil outcome is the designed empty result, not an error: callers
// record it and move on.
func (e *Engine) Generate(ctx context.Context, patientID string, period MeasurePeriod) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "qrda.generate",
		trace.WithAttributes(
			attribute.String("patient.id", patientID),
			attribute.String("period.start", period.Start),
			attribute.String("period.end", period.End),
		))
	defer span.End()

	data, err := e.aggregator.Aggregate(ctx, patientID, period)
	if err != nil {
		return nil, fmt.Errorf("aggregate patient %s: %w", patientID, err)
	}

	if !data.HasClinicalData() {
		span.SetAttributes(attribute.Bool("document.empty", true))
		e.logger.Info("no clinical data in period, skipping document",
			zap.String("patient_id", patientID))
		return nil, nil
	}

	doc := BuildDocument(data, period, e.now(), e.newID)

	out, err := cda.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize document for patient %s: %w", patientID, err)
	}

	e.logger.Info("generated document",
		zap.String("patient_id", patientID),
		zap.Int("encounters", len(data.Encounters)),
		zap.Int("interventions", len(data.Interventions)),
		zap.Int("procedures", len(data.Procedures)),
		zap.Int("coverages", len(data.Coverages)),
		zap.Int("bytes", len(out)))

	return &Result{
		PatientID:     patientID,
		Document:      out,
		Encounters:    len(data.Encounters),
		Interventions: len(data.Interventions),
		Procedures:    len(data.Procedures),
		Coverages:     len(data.Coverages),
	}, nil
}
