package qrda

import "time"

const hl7Layout = "20060102150405"

// Layouts accepted for FHIR dateTime strings, most precise first.
var fhirLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDateTime parses a FHIR dateTime string at any supported precision.
func ParseDateTime(dt string) (time.Time, error) {
	var err error
	for _, layout := range fhirLayouts {
		var t time.Time
		if t, err = time.Parse(layout, dt); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// formatHL7 converts a FHIR dateTime string to the HL7 compact form
// (yyyyMMddHHmmss). Unparseable or empty input yields "".
func formatHL7(dt string) string {
	if dt == "" {
		return ""
	}
	for _, layout := range fhirLayouts {
		if t, err := time.Parse(layout, dt); err == nil {
			return t.Format(hl7Layout)
		}
	}
	return ""
}

// formatHL7Time renders a time.Time in the HL7 compact form.
func formatHL7Time(t time.Time) string {
	return t.Format(hl7Layout)
}
