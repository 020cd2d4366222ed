package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/clarahealth/qrda-export/internal/observability/metrics"
	"github.com/clarahealth/qrda-export/internal/qrda"
	"github.com/clarahealth/qrda-export/pkg/workerpool"
)

// Generator produces one document per patient. Satisfied by *qrda.Engine.
type Generator interface {
	Generate(ctx context.Context, patientID string, period qrda.MeasurePeriod) (*qrda.Result, error)
}

// JobStore is the slice of Repository the runner needs.
type JobStore interface {
	MarkRunning(ctx context.Context, id string) error
	FinishJob(ctx context.Context, job *Job, outcomes []Outcome) error
	SaveDocument(ctx context.Context, jobID, patientID string, xml []byte) error
}

// Runner executes export jobs: one engine invocation per patient, fanned out
// through a bounded worker pool. Failures mark that patient failed and the
// job continues.
type Runner struct {
	engine  Generator
	store   JobStore
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
	workers int
}

// NewRunner creates a runner. A nil metrics registry disables instrumentation.
func NewRunner(engine Generator, store JobStore, m *metrics.Metrics, workers int, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = workerpool.DefaultConfig().Workers
	}
	return &Runner{
		engine:  engine,
		store:   store,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("export.runner"),
		workers: workers,
	}
}

// HandleRequested is the message handler for ExportRequested events.
func (r *Runner) HandleRequested(ctx context.Context, payload []byte) error {
	var data RequestedData
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode requested event: %w", err)
	}

	job := &Job{
		ID:          data.JobID,
		MeasureCode: data.MeasureCode,
		Period:      qrda.MeasurePeriod{Start: data.PeriodStart, End: data.PeriodEnd},
		PatientIDs:  data.PatientIDs,
		Status:      StatusRunning,
	}

	return r.Run(ctx, job)
}

// Run executes one job to completion and persists the result.
func (r *Runner) Run(ctx context.Context, job *Job) error {
	ctx, span := r.tracer.Start(ctx, "export.run_job",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.Int("job.patients", len(job.PatientIDs)),
		))
	defer span.End()

	if err := r.store.MarkRunning(ctx, job.ID); err != nil {
		// A replayed event may hit an already-running or finished job; that
		// is not a reason to fail the whole delivery.
		r.logger.Warn("job not transitioned to running", zap.String("job_id", job.ID), zap.Error(err))
	}

	if r.metrics != nil {
		r.metrics.ActiveJobs.Inc()
		defer r.metrics.ActiveJobs.Dec()
	}

	outcomes := r.generateAll(ctx, job)

	failed := 0
	for _, o := range outcomes {
		if o.Status == OutcomeFailed {
			failed++
		}
	}

	job.Status = StatusCompleted
	if failed == len(job.PatientIDs) && len(job.PatientIDs) > 0 {
		job.Status = StatusFailed
		job.Error = "all patients failed"
	}

	if err := r.store.FinishJob(ctx, job, outcomes); err != nil {
		return fmt.Errorf("finish job %s: %w", job.ID, err)
	}

	if r.metrics != nil {
		if job.Status == StatusFailed {
			r.metrics.JobsFailed.Inc()
		} else {
			r.metrics.JobsCompleted.Inc()
		}
	}

	r.logger.Info("export job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
		zap.Int("patients", len(job.PatientIDs)),
		zap.Int("failed", failed))

	return nil
}

// generateAll fans patients out across the worker pool and collects one
// outcome per patient.
func (r *Runner) generateAll(ctx context.Context, job *Job) []Outcome {
	cfg := workerpool.DefaultConfig()
	cfg.Workers = r.workers
	if len(job.PatientIDs) > cfg.QueueSize {
		cfg.QueueSize = len(job.PatientIDs)
	}

	pool, err := workerpool.New(cfg, r.generateTask(job), r.logger)
	if err != nil {
		// Only reachable with a nil worker func.
		r.logger.Error("worker pool init failed", zap.Error(err))
		return nil
	}
	pool.Start()

	now := time.Now().UTC()
	outcomes, submitted := r.submitAll(ctx, pool, job, now)

	for i := 0; i < submitted; i++ {
		result := <-pool.Results()
		outcome := Outcome{
			JobID:     job.ID,
			PatientID: result.TaskID,
			CreatedAt: now,
		}
		switch {
		case !result.Success:
			outcome.Status = OutcomeFailed
			outcome.Error = result.Error.Error()
		case result.Data == nil:
			outcome.Status = OutcomeEmpty
		default:
			outcome.Status = OutcomeGenerated
		}
		outcomes = append(outcomes, outcome)
	}

	pool.Stop()
	return outcomes
}

// submitAll enqueues one task per patient and returns the count actually
// accepted. A rejected submission yields a failed outcome directly, so the
// caller's result loop only ever waits for tasks the pool took.
func (r *Runner) submitAll(ctx context.Context, pool *workerpool.Pool, job *Job, now time.Time) ([]Outcome, int) {
	outcomes := make([]Outcome, 0, len(job.PatientIDs))
	submitted := 0
	for _, patientID := range job.PatientIDs {
		task := &workerpool.Task{ID: patientID, Payload: patientID, Context: ctx}
		if err := pool.Submit(task); err != nil {
			r.logger.Error("submit failed", zap.String("patient_id", patientID), zap.Error(err))
			outcomes = append(outcomes, Outcome{
				JobID:     job.ID,
				PatientID: patientID,
				Status:    OutcomeFailed,
				Error:     err.Error(),
				CreatedAt: now,
			})
			continue
		}
		submitted++
	}
	return outcomes, submitted
}

// generateTask returns the per-patient worker function for one job.
func (r *Runner) generateTask(job *Job) workerpool.WorkerFunc {
	return func(ctx context.Context, task *workerpool.Task) *workerpool.Result {
		patientID := task.Payload.(string)
		started := time.Now()

		result, err := r.engine.Generate(ctx, patientID, job.Period)

		if r.metrics != nil {
			r.metrics.GenerationDuration.Observe(time.Since(started).Seconds())
		}

		if err != nil {
			if r.metrics != nil {
				r.metrics.DocumentsFailed.Inc()
			}
			return &workerpool.Result{TaskID: task.ID, Success: false, Error: err}
		}

		if result == nil {
			if r.metrics != nil {
				r.metrics.DocumentsEmpty.Inc()
			}
			return &workerpool.Result{TaskID: task.ID, Success: true}
		}

		if err := r.store.SaveDocument(ctx, job.ID, patientID, result.Document); err != nil {
			if r.metrics != nil {
				r.metrics.DocumentsFailed.Inc()
			}
			return &workerpool.Result{TaskID: task.ID, Success: false, Error: err}
		}

		if r.metrics != nil {
			r.metrics.DocumentsGenerated.Inc()
		}
		return &workerpool.Result{TaskID: task.ID, Success: true, Data: result}
	}
}
