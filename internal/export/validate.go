package export

import (
	"errors"
	"fmt"

	"github.com/clarahealth/qrda-export/internal/qrda"
)

// Validation errors. All requests are validated in full before any clinical
// read happens.
var (
	ErrUnsupportedMeasure   = errors.New("unsupported measure")
	ErrMissingRequiredInput = errors.New("missing required input")
	ErrMalformedDateTime    = errors.New("malformed dateTime")
)

// Request is an export job request as received from the API.
type Request struct {
	MeasureCode string   `json:"measure_code"`
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	PatientIDs  []string `json:"patient_ids"`
}

// Validate checks the request against the supported measure and input rules.
func (r *Request) Validate() error {
	if r.MeasureCode != qrda.MeasureCode {
		return fmt.Errorf("%w: %q", ErrUnsupportedMeasure, r.MeasureCode)
	}
	if r.PeriodStart == "" {
		return fmt.Errorf("%w: period_start", ErrMissingRequiredInput)
	}
	if r.PeriodEnd == "" {
		return fmt.Errorf("%w: period_end", ErrMissingRequiredInput)
	}
	if len(r.PatientIDs) == 0 {
		return fmt.Errorf("%w: patient_ids", ErrMissingRequiredInput)
	}
	for _, id := range r.PatientIDs {
		if id == "" {
			return fmt.Errorf("%w: empty patient id", ErrMissingRequiredInput)
		}
	}

	start, err := qrda.ParseDateTime(r.PeriodStart)
	if err != nil {
		return fmt.Errorf("%w: period_start %q", ErrMalformedDateTime, r.PeriodStart)
	}
	end, err := qrda.ParseDateTime(r.PeriodEnd)
	if err != nil {
		return fmt.Errorf("%w: period_end %q", ErrMalformedDateTime, r.PeriodEnd)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: period end precedes start", ErrMissingRequiredInput)
	}

	return nil
}
