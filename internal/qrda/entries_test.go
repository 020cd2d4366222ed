package qrda

import (
	"strings"
	"testing"

	"github.com/clarahealth/qrda-export/internal/fhir/r4"
	"github.com/clarahealth/qrda-export/internal/qrda/cda"
)

func TestEncounterEntryBasics(t *testing.T) {
	rec := EncounterRecord{Encounter: r4.Encounter{
		ID: "enc-1",
		Type: []r4.CodeableConcept{{Coding: []r4.Coding{
			{System: r4.SystemCPT, Code: "99213"},
		}}},
		Period: &r4.Period{Start: "2026-03-15T10:30:00Z", End: "2026-03-15T11:00:00Z"},
	}}

	entry := buildEncounterEntry(&rec)
	enc := entry.Encounter
	if enc == nil {
		t.Fatal("expected encounter fragment")
	}
	if enc.ID.Extension != "enc-1" {
		t.Errorf("id extension = %q", enc.ID.Extension)
	}
	if enc.Code.Code != "99213" || enc.Code.CodeSystem != oidCPT {
		t.Errorf("code = %+v", enc.Code)
	}
	if enc.EffectiveTime.Low == nil || *enc.EffectiveTime.Low.Value != "20260315103000" {
		t.Errorf("low = %+v", enc.EffectiveTime.Low)
	}
	if enc.EffectiveTime.High == nil || *enc.EffectiveTime.High.Value != "20260315110000" {
		t.Errorf("high = %+v", enc.EffectiveTime.High)
	}
	if len(enc.EntryRelationship) != 0 {
		t.Errorf("no diagnosis or class expected, got %d relationships", len(enc.EntryRelationship))
	}
}

func TestEncounterEntryMissingPeriodFallsBackToEmpty(t *testing.T) {
	rec := EncounterRecord{Encounter: r4.Encounter{ID: "enc-1"}}

	enc := buildEncounterEntry(&rec).Encounter
	// An absent period renders value="" on both bounds, not nullFlavor.
	if enc.EffectiveTime.Low == nil || enc.EffectiveTime.Low.Value == nil || *enc.EffectiveTime.Low.Value != "" {
		t.Errorf("low should carry empty value attr, got %+v", enc.EffectiveTime.Low)
	}
	if enc.EffectiveTime.Low.NullFlavor != "" {
		t.Error("low must not carry a nullFlavor")
	}
}

func TestEncounterEntryMissingTypeEmitsEmptyCode(t *testing.T) {
	rec := EncounterRecord{Encounter: r4.Encounter{ID: "enc-1"}}

	doc := &cda.ClinicalDocument{
		Component: cda.BodyComponent{StructuredBody: cda.StructuredBody{Component: []cda.SectionComponent{{
			Section: cda.Section{Entry: []cda.Entry{buildEncounterEntry(&rec)}},
		}}}},
	}
	out, err := cda.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// An absent encounter type renders code="", same empty-string fallback
	// as time values. The attribute must not be dropped.
	if !strings.Contains(string(out), `code="" codeSystem="`+oidCPT+`"`) {
		t.Errorf("missing type should render code=\"\", got:\n%s", out)
	}
}

func TestEncounterEntryDiagnosisAndRank(t *testing.T) {
	rec := EncounterRecord{
		Encounter: r4.Encounter{ID: "enc-1"},
		Diagnosis: &r4.Condition{
			ID: "c1",
			Code: &r4.CodeableConcept{Coding: []r4.Coding{
				{System: r4.SystemSNOMED, Code: "10725009"},
			}},
		},
		DiagnosisRank: 2,
	}

	enc := buildEncounterEntry(&rec).Encounter
	if len(enc.EntryRelationship) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(enc.EntryRelationship))
	}
	diag := enc.EntryRelationship[0].Observation
	if diag == nil {
		t.Fatal("expected diagnosis observation")
	}
	if diag.Code.Code != loincDiagnosis {
		t.Errorf("diagnosis code = %q", diag.Code.Code)
	}
	if diag.Value.Code != "10725009" || diag.Value.XSIType != "CD" {
		t.Errorf("diagnosis value = %+v", diag.Value)
	}

	if len(diag.EntryRelationship) != 1 {
		t.Fatal("expected nested rank observation")
	}
	rank := diag.EntryRelationship[0].Observation
	if rank.Code.Code != snomedRank {
		t.Errorf("rank code = %q", rank.Code.Code)
	}
	if rank.Value.Value != "2" || rank.Value.XSIType != "INT" {
		t.Errorf("rank value = %+v", rank.Value)
	}
}

func TestEncounterEntryClassAct(t *testing.T) {
	rec := EncounterRecord{Encounter: r4.Encounter{
		ID:    "enc-1",
		Class: &r4.Coding{System: r4.SystemActCode, Code: "AMB"},
	}}

	enc := buildEncounterEntry(&rec).Encounter
	if len(enc.EntryRelationship) != 1 {
		t.Fatalf("expected class act, got %d relationships", len(enc.EntryRelationship))
	}
	act := enc.EntryRelationship[0].Act
	if act == nil {
		t.Fatal("expected act fragment")
	}
	if act.Code.Code != "AMB" || act.Code.CodeSystem != oidActCode {
		t.Errorf("class act code = %+v", act.Code)
	}
}

func TestEncounterEntryClassActSuppressed(t *testing.T) {
	cases := []struct {
		name  string
		class *r4.Coding
	}{
		{"absent", nil},
		{"unknown sentinel", &r4.Coding{Code: "UNK"}},
		{"empty code", &r4.Coding{Code: ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := EncounterRecord{Encounter: r4.Encounter{ID: "enc-1", Class: tc.class}}
			enc := buildEncounterEntry(&rec).Encounter
			if len(enc.EntryRelationship) != 0 {
				t.Errorf("class act must be suppressed, got %d relationships", len(enc.EntryRelationship))
			}
		})
	}
}

func TestEncounterEntryDischargeDisposition(t *testing.T) {
	rec := EncounterRecord{Encounter: r4.Encounter{
		ID: "enc-1",
		Hospitalization: &r4.EncounterHospitalization{
			DischargeDisposition: &r4.CodeableConcept{Coding: []r4.Coding{
				{System: r4.SystemSNOMED, Code: "306689006"},
			}},
		},
	}}

	enc := buildEncounterEntry(&rec).Encounter
	if enc.DischargeDisposition == nil {
		t.Fatal("expected discharge disposition")
	}
	if enc.DischargeDisposition.Code != "306689006" {
		t.Errorf("disposition code = %q", enc.DischargeDisposition.Code)
	}
}

func TestInterventionEntryAlwaysNegated(t *testing.T) {
	proc := r4.Procedure{
		ID: "int-1",
		Code: &r4.CodeableConcept{Coding: []r4.Coding{
			{System: r4.SystemSNOMED, Code: "428191000124101", Display: "Documentation of current medications"},
		}},
	}

	act := buildInterventionEntry(&proc).Act
	if act == nil {
		t.Fatal("expected act fragment")
	}
	if act.NegationInd != "true" {
		t.Errorf("negationInd = %q", act.NegationInd)
	}
	if act.Code.Code != "428191000124101" {
		t.Errorf("code = %+v", act.Code)
	}
	if act.Text == nil || *act.Text != "Documentation of current medications" {
		t.Errorf("text = %v", act.Text)
	}
}

func TestProcedureEffectiveTimeUnknownWithoutPeriod(t *testing.T) {
	proc := r4.Procedure{ID: "proc-1", PerformedDateTime: "2026-06-01T09:00:00Z"}

	activity := buildProcedureEntry(&proc).Procedure
	if activity.EffectiveTime.NullFlavor != "UNK" {
		t.Errorf("effectiveTime should be nullFlavor UNK, got %+v", activity.EffectiveTime)
	}
	if activity.EffectiveTime.Value != nil {
		t.Error("value attr must be omitted when null-flavored")
	}

	// The precise performedDateTime feeds the author fragment instead.
	if activity.Author == nil {
		t.Fatal("expected author fragment")
	}
	if *activity.Author.Time.Value != "20260601090000" {
		t.Errorf("author time = %q", *activity.Author.Time.Value)
	}
	if activity.Author.AssignedAuthor.ID.NullFlavor != "NA" {
		t.Errorf("author id nullFlavor = %q", activity.Author.AssignedAuthor.ID.NullFlavor)
	}
}

func TestProcedureEffectiveTimeFromPeriod(t *testing.T) {
	proc := r4.Procedure{
		ID:              "proc-1",
		PerformedPeriod: &r4.Period{Start: "2026-06-01T09:00:00Z"},
	}

	activity := buildProcedureEntry(&proc).Procedure
	if activity.EffectiveTime.Value == nil || *activity.EffectiveTime.Value != "20260601090000" {
		t.Errorf("effectiveTime = %+v", activity.EffectiveTime)
	}
	if activity.Author != nil {
		t.Error("no author fragment without performedDateTime")
	}
}

func TestProcedureRankRelationship(t *testing.T) {
	rank := 1
	proc := r4.Procedure{
		ID: "proc-1",
		Extension: []r4.Extension{
			{URL: r4.ExtProcedureRank, ValueInteger: &rank},
		},
	}

	activity := buildProcedureEntry(&proc).Procedure
	if len(activity.EntryRelationship) != 1 {
		t.Fatalf("expected rank relationship, got %d", len(activity.EntryRelationship))
	}
	obs := activity.EntryRelationship[0].Observation
	if obs.Code.Code != snomedRank || obs.Value.Value != "1" {
		t.Errorf("rank observation = %+v", obs)
	}
}

func TestNegationRationale(t *testing.T) {
	proc := r4.Procedure{
		ID: "int-1",
		StatusReason: &r4.CodeableConcept{Coding: []r4.Coding{
			{System: r4.SystemSNOMED, Code: "183932001"},
		}},
	}

	act := buildInterventionEntry(&proc).Act
	if len(act.EntryRelationship) != 1 {
		t.Fatalf("expected rationale relationship, got %d", len(act.EntryRelationship))
	}
	rel := act.EntryRelationship[0]
	if rel.TypeCode != "RSON" {
		t.Errorf("typeCode = %q", rel.TypeCode)
	}
	if rel.Observation.Value.Code != "183932001" {
		t.Errorf("rationale value = %+v", rel.Observation.Value)
	}
}

func TestPayerEntry(t *testing.T) {
	cov := r4.Coverage{
		ID: "cov-1",
		Type: &r4.CodeableConcept{Coding: []r4.Coding{
			{System: r4.SystemSOP, Code: "1"},
		}},
		Period: &r4.Period{Start: "2020-01-01", End: "2027-01-01"},
	}

	obs := buildPayerEntry(&cov).Observation
	if obs == nil {
		t.Fatal("expected payer observation")
	}
	if obs.ID.Root != "cov-1" {
		t.Errorf("payer id root = %q", obs.ID.Root)
	}
	if obs.Code.Code != loincPaymentSource {
		t.Errorf("payer code = %q", obs.Code.Code)
	}
	if *obs.EffectiveTime.Low.Value != "20200101000000" {
		t.Errorf("low = %+v", obs.EffectiveTime.Low)
	}
	// Coverage end is always reported unknown.
	if obs.EffectiveTime.High.NullFlavor != "UNK" {
		t.Errorf("high = %+v", obs.EffectiveTime.High)
	}
	if obs.Value.Code != "1" || obs.Value.CodeSystem != oidPaymentTypology {
		t.Errorf("payer value = %+v", obs.Value)
	}
}

func TestPayerEntryMissingPeriod(t *testing.T) {
	cov := r4.Coverage{ID: "cov-1"}

	obs := buildPayerEntry(&cov).Observation
	if obs.EffectiveTime.Low == nil || obs.EffectiveTime.Low.Value == nil || *obs.EffectiveTime.Low.Value != "" {
		t.Errorf("low should fall back to empty value, got %+v", obs.EffectiveTime.Low)
	}
}
