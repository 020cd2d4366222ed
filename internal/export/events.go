package export

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event
type EventType string

const (
	EventExportRequested EventType = "ExportRequested"
	EventExportCompleted EventType = "ExportCompleted"
)

// RequestedData is the payload of an ExportRequested event.
type RequestedData struct {
	JobID       string    `json:"job_id"`
	MeasureCode string    `json:"measure_code"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	PatientIDs  []string  `json:"patient_ids"`
	RequestedAt time.Time `json:"requested_at"`
}

// CompletedData is the payload of an ExportCompleted event.
type CompletedData struct {
	JobID       string    `json:"job_id"`
	Status      Status    `json:"status"`
	Generated   int       `json:"generated"`
	Empty       int       `json:"empty"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}

// MarshalEvent serializes an event payload for the outbox.
func MarshalEvent(data interface{}) (json.RawMessage, error) {
	return json.Marshal(data)
}
