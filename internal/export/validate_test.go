package export

import (
	"errors"
	"testing"
)

func validRequest() Request {
	return Request{
		MeasureCode: "CMS68v14",
		PeriodStart: "2026-01-01",
		PeriodEnd:   "2026-12-31",
		PatientIDs:  []string{"p1", "p2"},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{"valid", func(r *Request) {}, nil},
		{"wrong measure", func(r *Request) { r.MeasureCode = "CMS2v13" }, ErrUnsupportedMeasure},
		{"empty measure", func(r *Request) { r.MeasureCode = "" }, ErrUnsupportedMeasure},
		{"missing start", func(r *Request) { r.PeriodStart = "" }, ErrMissingRequiredInput},
		{"missing end", func(r *Request) { r.PeriodEnd = "" }, ErrMissingRequiredInput},
		{"no patients", func(r *Request) { r.PatientIDs = nil }, ErrMissingRequiredInput},
		{"blank patient id", func(r *Request) { r.PatientIDs = []string{"p1", ""} }, ErrMissingRequiredInput},
		{"garbled start", func(r *Request) { r.PeriodStart = "01/01/2026" }, ErrMalformedDateTime},
		{"garbled end", func(r *Request) { r.PeriodEnd = "tomorrow" }, ErrMalformedDateTime},
		{"inverted period", func(r *Request) { r.PeriodStart, r.PeriodEnd = r.PeriodEnd, r.PeriodStart }, ErrMissingRequiredInput},
		{"timestamp precision", func(r *Request) {
			r.PeriodStart = "2026-01-01T00:00:00Z"
			r.PeriodEnd = "2026-12-31T23:59:59Z"
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			err := req.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}
