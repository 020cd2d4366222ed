package qrda

import (
	"strconv"

	"github.com/clarahealth/qrda-export/internal/fhir/r4"
	"github.com/clarahealth/qrda-export/internal/qrda/cda"
)

// buildEncounterEntry renders one encounter performed entry. The diagnosis
// and class fragments are conditional: the diagnosis observation appears only
// when a diagnosis condition was threaded onto the record, and the class act
// appears only when the encounter carries a usable class code.
func buildEncounterEntry(rec *EncounterRecord) cda.Entry {
	enc := &rec.Encounter

	code := ""
	if len(enc.Type) > 0 {
		if c := enc.Type[0].FirstCoding(); c != nil {
			code = c.Code
		}
	}

	start, end := "", ""
	if enc.Period != nil {
		start = formatHL7(enc.Period.Start)
		end = formatHL7(enc.Period.End)
	}

	activity := &cda.EncounterActivity{
		ClassCode: "ENC",
		MoodCode:  "EVN",
		TemplateID: []cda.TemplateID{
			{Root: tplEncounterActivities, Extension: "2015-08-01"},
			{Root: tplEncounterPerformed, Extension: "2021-08-01"},
		},
		ID: cda.ID{Root: oidLocalRoot, Extension: enc.ID},
		Code: cda.Code{
			Code:           code,
			CodeSystem:     oidCPT,
			CodeSystemName: "CPT",
		},
		Text:       enc.Description(),
		StatusCode: cda.Code{Code: "completed"},
		EffectiveTime: cda.EffectiveTime{
			Low:  cda.Time(start),
			High: cda.Time(end),
		},
	}

	if rec.Diagnosis != nil {
		activity.EntryRelationship = append(activity.EntryRelationship,
			buildDiagnosisRelationship(rec.Diagnosis, rec.DiagnosisRank))
	}

	if class := ClassOf(enc.Class); class.Known() {
		activity.EntryRelationship = append(activity.EntryRelationship, cda.EntryRelationship{
			TypeCode: "REFR",
			Act: &cda.ActivityAct{
				ClassCode:  "ACT",
				MoodCode:   "EVN",
				TemplateID: []cda.TemplateID{{Root: tplEncounterClassAct, Extension: "2021-08-01"}},
				Code: cda.Code{
					Code:           class.Code(),
					CodeSystem:     oidActCode,
					CodeSystemName: "HL7 Act Code",
				},
			},
		})
	}

	if enc.Hospitalization != nil && enc.Hospitalization.DischargeDisposition != nil {
		if c := enc.Hospitalization.DischargeDisposition.FirstCoding(); c != nil {
			activity.DischargeDisposition = &cda.Code{
				Code:           c.Code,
				CodeSystem:     oidSNOMED,
				CodeSystemName: "SNOMEDCT",
			}
		}
	}

	return cda.Entry{Encounter: activity}
}

func buildDiagnosisRelationship(diagnosis *r4.Condition, rank int) cda.EntryRelationship {
	code := ""
	if diagnosis.Code != nil {
		if c := diagnosis.Code.FirstCoding(); c != nil {
			code = c.Code
		}
	}

	return cda.EntryRelationship{
		TypeCode: "REFR",
		Observation: &cda.Observation{
			ClassCode:  "OBS",
			MoodCode:   "EVN",
			TemplateID: []cda.TemplateID{{Root: tplEncounterDiagnosisQDM, Extension: "2019-12-01"}},
			Code:       cda.Code{Code: loincDiagnosis, CodeSystem: oidLOINC},
			Value: &cda.Value{
				XSIType:        "CD",
				Code:           code,
				CodeSystem:     oidSNOMED,
				CodeSystemName: "SNOMEDCT",
			},
			EntryRelationship: []cda.EntryRelationship{buildRankRelationship(rank)},
		},
	}
}

func buildRankRelationship(rank int) cda.EntryRelationship {
	return cda.EntryRelationship{
		TypeCode: "REFR",
		Observation: &cda.Observation{
			ClassCode:  "OBS",
			MoodCode:   "EVN",
			TemplateID: []cda.TemplateID{{Root: tplRankObservation, Extension: "2019-12-01"}},
			Code: cda.Code{
				Code:        snomedRank,
				CodeSystem:  oidSNOMED,
				DisplayName: "Rank",
			},
			Value: &cda.Value{XSIType: "INT", Value: strconv.Itoa(rank)},
		},
	}
}

// buildInterventionEntry renders one intervention performed act. The measure
// reports medication documentation that did NOT happen, so the negation
// indicator is always set.
func buildInterventionEntry(intervention *r4.Procedure) cda.Entry {
	act := &cda.ActivityAct{
		ClassCode:   "ACT",
		MoodCode:    "EVN",
		NegationInd: "true",
		TemplateID: []cda.TemplateID{
			{Root: tplProcedureActivityAct, Extension: "2014-06-09"},
			{Root: tplInterventionPerformed, Extension: "2021-08-01"},
		},
		ID:            &cda.ID{Root: oidLocalRoot, Extension: intervention.ID},
		Code:          procedureCode(intervention),
		Text:          strptr(procedureDisplay(intervention)),
		StatusCode:    &cda.Code{Code: "completed"},
		EffectiveTime: procedureEffectiveTime(intervention),
		Author:        procedureAuthor(intervention),
	}

	if rel := negationRationale(intervention); rel != nil {
		act.EntryRelationship = append(act.EntryRelationship, *rel)
	}

	return cda.Entry{Act: act}
}

// buildProcedureEntry renders one procedure performed entry. Unlike
// interventions, procedures may additionally carry a rank observation.
func buildProcedureEntry(procedure *r4.Procedure) cda.Entry {
	activity := &cda.ProcedureActivity{
		ClassCode:   "PROC",
		MoodCode:    "EVN",
		NegationInd: "true",
		TemplateID: []cda.TemplateID{
			{Root: tplProcedurePerformed, Extension: "2021-08-01"},
			{Root: tplProcedureActivity, Extension: "2014-06-09"},
		},
		ID:            cda.ID{Root: oidLocalRoot, Extension: procedure.ID},
		Code:          procedureCode(procedure),
		Text:          procedureDisplay(procedure),
		StatusCode:    cda.Code{Code: "completed"},
		EffectiveTime: *procedureEffectiveTime(procedure),
		Author:        procedureAuthor(procedure),
	}

	if rank := procedure.Rank(); rank != nil {
		activity.EntryRelationship = append(activity.EntryRelationship, buildRankRelationship(*rank))
	}
	if rel := negationRationale(procedure); rel != nil {
		activity.EntryRelationship = append(activity.EntryRelationship, *rel)
	}

	return cda.Entry{Procedure: activity}
}

func procedureCode(p *r4.Procedure) cda.Code {
	code := ""
	if p.Code != nil {
		if c := p.Code.FirstCoding(); c != nil {
			code = c.Code
		}
	}
	return cda.Code{
		Code:           code,
		CodeSystem:     oidSNOMED,
		CodeSystemName: "SNOMEDCT",
	}
}

func procedureDisplay(p *r4.Procedure) string {
	if p.Code != nil {
		if c := p.Code.FirstCoding(); c != nil {
			return c.Display
		}
	}
	return ""
}

// procedureEffectiveTime renders the relevant period: the performed period
// start when present, else an explicit unknown marker. The precise
// performedDateTime fact feeds the author fragment instead.
func procedureEffectiveTime(p *r4.Procedure) *cda.EffectiveTime {
	if p.PerformedPeriod != nil && p.PerformedPeriod.Start != "" {
		return &cda.EffectiveTime{Value: strptr(formatHL7(p.PerformedPeriod.Start))}
	}
	return &cda.EffectiveTime{NullFlavor: "UNK"}
}

func procedureAuthor(p *r4.Procedure) *cda.FragmentAuthor {
	if p.PerformedDateTime == "" {
		return nil
	}
	return &cda.FragmentAuthor{
		TemplateID:     []cda.TemplateID{{Root: tplAuthorDateTime, Extension: "2019-12-01"}},
		Time:           *cda.Time(formatHL7(p.PerformedDateTime)),
		AssignedAuthor: cda.NullAuthor{ID: cda.NullID{NullFlavor: "NA"}},
	}
}

func negationRationale(p *r4.Procedure) *cda.EntryRelationship {
	if p.StatusReason == nil {
		return nil
	}
	coding := p.StatusReason.FirstCoding()
	if coding == nil {
		return nil
	}
	return &cda.EntryRelationship{
		TypeCode: "RSON",
		Observation: &cda.Observation{
			ClassCode:  "OBS",
			MoodCode:   "EVN",
			TemplateID: []cda.TemplateID{{Root: tplNegationRationale, Extension: "2017-08-01"}},
			Code: cda.Code{
				Code:           loincReasonCareAction,
				CodeSystem:     oidLOINC,
				CodeSystemName: "LOINC",
				DisplayName:    "reason",
			},
			Value: &cda.Value{
				XSIType:        "CD",
				Code:           coding.Code,
				CodeSystem:     oidSNOMED,
				CodeSystemName: "SNOMEDCT",
			},
		},
	}
}

// buildPayerEntry renders one patient characteristic payer observation. The
// coverage end is always reported as unknown; only the start is carried.
func buildPayerEntry(coverage *r4.Coverage) cda.Entry {
	start := ""
	if coverage.Period != nil {
		start = formatHL7(coverage.Period.Start)
	}

	payerType := ""
	if coverage.Type != nil {
		if c := coverage.Type.FirstCoding(); c != nil {
			payerType = c.Code
		}
	}

	return cda.Entry{
		Observation: &cda.Observation{
			ClassCode:  "OBS",
			MoodCode:   "EVN",
			TemplateID: []cda.TemplateID{{Root: tplPatientCharacteristic}},
			ID:         &cda.ID{Root: coverage.ID},
			Code: cda.Code{
				Code:           loincPaymentSource,
				CodeSystem:     oidLOINC,
				CodeSystemName: "LOINC",
				DisplayName:    "Payment source",
			},
			StatusCode: &cda.Code{Code: "completed"},
			EffectiveTime: &cda.EffectiveTime{
				Low:  cda.Time(start),
				High: cda.TimeUnknown(),
			},
			Value: &cda.Value{
				XSIType:        "CD",
				Code:           payerType,
				CodeSystem:     oidPaymentTypology,
				CodeSystemName: "Source of Payment Typology",
			},
		},
	}
}

func strptr(s string) *string { return &s }
