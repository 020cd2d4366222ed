package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/clarahealth/qrda-export/internal/infrastructure/postgres"
	"github.com/clarahealth/qrda-export/internal/infrastructure/redpanda"
)

// ErrJobNotFound indicates the job id does not exist.
var ErrJobNotFound = errors.New("export job not found")

// ErrDocumentNotFound indicates no generated document for the job/patient
// pair. This covers both unknown patients and the designed empty outcome.
var ErrDocumentNotFound = errors.New("document not found")

// Repository persists export jobs, per-patient outcomes and generated
// documents.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, logger: logger}
}

// CreateJob inserts the job and writes the ExportRequested outbox entry in
// the same transaction. Either both land or neither does.
func (r *Repository) CreateJob(ctx context.Context, job *Job) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO export_jobs (id, measure_code, period_start, period_end, patient_ids, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, query,
		job.ID,
		job.MeasureCode,
		job.Period.Start,
		job.Period.End,
		job.PatientIDs,
		job.Status,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	payload, err := MarshalEvent(&RequestedData{
		JobID:       job.ID,
		MeasureCode: job.MeasureCode,
		PeriodStart: job.Period.Start,
		PeriodEnd:   job.Period.End,
		PatientIDs:  job.PatientIDs,
		RequestedAt: job.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal requested event: %w", err)
	}

	entry := &postgres.OutboxEntry{
		AggregateID:   job.ID,
		AggregateType: "ExportJob",
		EventType:     string(EventExportRequested),
		Payload:       payload,
		Topic:         redpanda.TopicExportRequested,
		Key:           job.ID,
	}
	if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// GetJob retrieves a job by id.
func (r *Repository) GetJob(ctx context.Context, id string) (*Job, error) {
	query := `
		SELECT id, measure_code, period_start, period_end, patient_ids,
		       status, error, created_at, updated_at, completed_at
		FROM export_jobs
		WHERE id = $1
	`

	job := &Job{}
	var jobErr *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.MeasureCode, &job.Period.Start, &job.Period.End,
		&job.PatientIDs, &job.Status, &jobErr,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("query job: %w", err)
	}
	if jobErr != nil {
		job.Error = *jobErr
	}

	return job, nil
}

// MarkRunning transitions a pending job to running.
func (r *Repository) MarkRunning(ctx context.Context, id string) error {
	query := `
		UPDATE export_jobs
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	tag, err := r.pool.Exec(ctx, query, StatusRunning, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w or not pending: %s", ErrJobNotFound, id)
	}
	return nil
}

// FinishJob records the terminal status, the per-patient outcomes and the
// ExportCompleted outbox entry in one transaction.
func (r *Repository) FinishJob(ctx context.Context, job *Job, outcomes []Outcome) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE export_jobs
		SET status = $1, error = NULLIF($2, ''), updated_at = NOW(), completed_at = NOW()
		WHERE id = $3
	`
	if _, err := tx.Exec(ctx, query, job.Status, job.Error, job.ID); err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	generated, empty, failed := 0, 0, 0
	for _, outcome := range outcomes {
		insert := `
			INSERT INTO export_outcomes (job_id, patient_id, status, error)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			ON CONFLICT (job_id, patient_id) DO UPDATE
			SET status = EXCLUDED.status, error = EXCLUDED.error
		`
		if _, err := tx.Exec(ctx, insert, outcome.JobID, outcome.PatientID, outcome.Status, outcome.Error); err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}

		switch outcome.Status {
		case OutcomeGenerated:
			generated++
		case OutcomeEmpty:
			empty++
		case OutcomeFailed:
			failed++
		}
	}

	payload, err := MarshalEvent(&CompletedData{
		JobID:       job.ID,
		Status:      job.Status,
		Generated:   generated,
		Empty:       empty,
		Failed:      failed,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal completed event: %w", err)
	}

	entry := &postgres.OutboxEntry{
		AggregateID:   job.ID,
		AggregateType: "ExportJob",
		EventType:     string(EventExportCompleted),
		Payload:       payload,
		Topic:         redpanda.TopicExportCompleted,
		Key:           job.ID,
	}
	if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// SaveDocument stores one generated document.
func (r *Repository) SaveDocument(ctx context.Context, jobID, patientID string, xml []byte) error {
	query := `
		INSERT INTO export_documents (job_id, patient_id, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id, patient_id) DO UPDATE
		SET document = EXCLUDED.document, created_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, jobID, patientID, xml); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocument retrieves one generated document.
func (r *Repository) GetDocument(ctx context.Context, jobID, patientID string) ([]byte, error) {
	query := `
		SELECT document FROM export_documents
		WHERE job_id = $1 AND patient_id = $2
	`
	var doc []byte
	err := r.pool.QueryRow(ctx, query, jobID, patientID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return doc, nil
}

// ListOutcomes returns all per-patient outcomes for a job.
func (r *Repository) ListOutcomes(ctx context.Context, jobID string) ([]Outcome, error) {
	query := `
		SELECT job_id, patient_id, status, COALESCE(error, ''), created_at
		FROM export_outcomes
		WHERE job_id = $1
		ORDER BY patient_id ASC
	`

	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.JobID, &o.PatientID, &o.Status, &o.Error, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
