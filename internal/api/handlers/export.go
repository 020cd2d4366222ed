// Package handlers provides HTTP handlers for the export API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/clarahealth/qrda-export/internal/api/middleware"
	"github.com/clarahealth/qrda-export/internal/export"
	"github.com/clarahealth/qrda-export/internal/observability/metrics"
	"github.com/clarahealth/qrda-export/pkg/idempotency"
)

// ExportHandler handles export job endpoints
type ExportHandler struct {
	repo    *export.Repository
	inbox   *idempotency.Inbox
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewExportHandler creates a new handler
func NewExportHandler(repo *export.Repository, inbox *idempotency.Inbox, m *metrics.Metrics, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		repo:    repo,
		inbox:   inbox,
		metrics: m,
		logger:  logger,
	}
}

// Routes returns the handler routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/outcomes", h.GetOutcomes)
	r.Get("/{id}/documents/{patientID}", h.GetDocument)
	return r
}

// CreateResponse is the response for creating an export job
type CreateResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Duplicate bool      `json:"duplicate,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Create handles POST /exports
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("export-handler")
	ctx, span := tracer.Start(ctx, "create_export")
	defer span.End()

	var req export.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		switch {
		case errors.Is(err, export.ErrUnsupportedMeasure):
			h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = idempotency.GenerateKey(req.MeasureCode, req.PeriodStart, req.PeriodEnd, req.PatientIDs)
	}
	span.SetAttributes(attribute.String("idempotency_key", key))

	payload, _ := json.Marshal(&req)
	result, err := h.inbox.Process(ctx, key, "create_export", payload, func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
		jobID := uuid.New().String()
		job := export.NewJob(jobID, &req, time.Now())
		if err := h.repo.CreateJob(ctx, job); err != nil {
			return nil, err
		}
		if h.metrics != nil {
			h.metrics.JobsCreated.Inc()
		}
		return json.Marshal(map[string]string{"id": jobID})
	})
	if err != nil {
		if errors.Is(err, idempotency.ErrMessageInProgress) {
			h.jsonError(w, "export request already in progress", http.StatusConflict)
			return
		}
		h.logger.Error("create export failed",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		h.jsonError(w, "failed to create export job", http.StatusInternalServerError)
		return
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(result.Result, &created); err != nil {
		h.jsonError(w, "failed to create export job", http.StatusInternalServerError)
		return
	}

	h.logger.Info("export job created",
		zap.String("id", created.ID),
		zap.Bool("duplicate", !result.IsNew),
		zap.String("client_id", middleware.GetClientID(ctx)),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	resp := CreateResponse{
		ID:        created.ID,
		Status:    string(export.StatusPending),
		Duplicate: !result.IsNew,
		CreatedAt: time.Now().UTC(),
	}

	status := http.StatusCreated
	if !result.IsNew {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Get handles GET /exports/{id}
func (h *ExportHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	job, err := h.repo.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, export.ErrJobNotFound) {
			h.jsonError(w, "export job not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, "failed to load export job", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"id":           job.ID,
		"measure_code": job.MeasureCode,
		"period_start": job.Period.Start,
		"period_end":   job.Period.End,
		"status":       job.Status,
		"created_at":   job.CreatedAt,
	}
	if job.Error != "" {
		resp["error"] = job.Error
	}
	if job.CompletedAt != nil {
		resp["completed_at"] = job.CompletedAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetOutcomes handles GET /exports/{id}/outcomes
func (h *ExportHandler) GetOutcomes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.repo.GetJob(ctx, id); err != nil {
		if errors.Is(err, export.ErrJobNotFound) {
			h.jsonError(w, "export job not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, "failed to load export job", http.StatusInternalServerError)
		return
	}

	outcomes, err := h.repo.ListOutcomes(ctx, id)
	if err != nil {
		h.jsonError(w, "failed to list outcomes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcomes)
}

// GetDocument handles GET /exports/{id}/documents/{patientID}
func (h *ExportHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	patientID := chi.URLParam(r, "patientID")

	doc, err := h.repo.GetDocument(ctx, id, patientID)
	if err != nil {
		if errors.Is(err, export.ErrDocumentNotFound) {
			h.jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, "failed to load document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write(doc)
}

func (h *ExportHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
