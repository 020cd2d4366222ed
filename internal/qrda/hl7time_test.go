package qrda

import "testing"

func TestFormatHL7(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-03-15T10:30:00Z", "20260315103000"},
		{"2026-03-15T10:30:00-05:00", "20260315103000"},
		{"2026-03-15T10:30:00", "20260315103000"},
		{"2026-03-15", "20260315000000"},
		{"", ""},
		{"not-a-date", ""},
	}

	for _, tc := range cases {
		if got := formatHL7(tc.in); got != tc.want {
			t.Errorf("formatHL7(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	if _, err := ParseDateTime("2026-01-01"); err != nil {
		t.Errorf("date-only precision should parse: %v", err)
	}
	if _, err := ParseDateTime("2026-01-01T12:00:00Z"); err != nil {
		t.Errorf("RFC3339 should parse: %v", err)
	}
	if _, err := ParseDateTime("01/01/2026"); err == nil {
		t.Error("expected error for unsupported layout")
	}
	if _, err := ParseDateTime(""); err == nil {
		t.Error("expected error for empty input")
	}
}
