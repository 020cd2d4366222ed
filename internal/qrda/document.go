package qrda

import (
	"time"

	"github.com/clarahealth/qrda-export/internal/fhir/r4"
	"github.com/clarahealth/qrda-export/internal/qrda/cda"
)

// BuildDocument assembles the full QRDA Category I document from aggregated,
// already-ordered patient data. It is a pure function: the creation time and
// every freshly generated id come in as parameters, never from process
// globals.
func BuildDocument(data *PatientData, period MeasurePeriod, generatedAt time.Time, newID func() string) *cda.ClinicalDocument {
	now := formatHL7Time(generatedAt)

	return &cda.ClinicalDocument{
		XmlnsXSI:  "http://www.w3.org/2001/XMLSchema-instance",
		Xmlns:     "urn:hl7-org:v3",
		XmlnsVoc:  "urn:hl7-org:v3/voc",
		XmlnsSDTC: "urn:hl7-org:sdtc",

		RealmCode: cda.Code{Code: "US"},
		TypeID:    cda.ID{Root: oidHL7RegisteredModels, Extension: "POCD_HD000040"},
		TemplateID: []cda.TemplateID{
			{Root: tplUSRealmHeader, Extension: "2015-08-01"},
			{Root: tplQRDA, Extension: "2017-08-01"},
			{Root: tplQDMQRDA, Extension: "2021-08-01"},
			{Root: tplCMSQRDACatI, Extension: "2022-02-01"},
		},
		ID: cda.ID{Root: newID()},
		Code: cda.Code{
			Code:           loincQualityMeasureReport,
			CodeSystem:     oidLOINC,
			CodeSystemName: "LOINC",
			DisplayName:    "Quality Measure Report",
		},
		Title:               "QRDA Incidence Report",
		EffectiveTime:       *cda.Time(now),
		ConfidentialityCode: cda.Code{Code: "N", CodeSystem: oidConfidentiality},
		LanguageCode:        cda.Code{Code: "en"},

		RecordTarget:       buildRecordTarget(data.Patient),
		Author:             buildAuthor(now),
		Custodian:          buildCustodian(),
		LegalAuthenticator: buildLegalAuthenticator(now, newID),
		Participant:        buildParticipant(),
		DocumentationOf:    buildDocumentationOf(),

		Component: cda.BodyComponent{
			StructuredBody: cda.StructuredBody{
				Component: []cda.SectionComponent{
					{Section: buildMeasureSection(newID)},
					{Section: buildReportingParametersSection(period, newID)},
					{Section: buildPatientDataSection(data)},
				},
			},
		},
	}
}

// buildRecordTarget maps patient demographics into the record target block.
// Missing address parts fall back to empty strings (country defaults to US);
// telecom entries are emitted only for contact points actually present.
func buildRecordTarget(patient *r4.Patient) cda.RecordTarget {
	role := cda.PatientRole{
		ID: cda.ID{Root: oidLocalRoot, Extension: patient.ID},
	}

	if len(patient.Address) > 0 {
		addr := patient.Address[0]
		line := ""
		if len(addr.Line) > 0 {
			line = addr.Line[0]
		}
		country := addr.Country
		if country == "" {
			country = "US"
		}
		role.Addr = &cda.Addr{
			Use:               "HP",
			StreetAddressLine: line,
			City:              addr.City,
			State:             addr.State,
			PostalCode:        addr.PostalCode,
			Country:           country,
		}
	}

	if phone := findTelecom(patient.Telecom, "phone"); phone != "" {
		role.Telecom = append(role.Telecom, cda.Telecom{Use: "HP", Value: "tel:" + phone})
	}
	if email := findTelecom(patient.Telecom, "email"); email != "" {
		role.Telecom = append(role.Telecom, cda.Telecom{Use: "HP", Value: "mailto:" + email})
	}

	given, family := "", ""
	if len(patient.Name) > 0 {
		name := patient.Name[0]
		if len(name.Given) > 0 {
			given = name.Given[0]
		}
		family = name.Family
	}

	raceCode := ""
	if race := patient.OMBCategory(r4.ExtUSCoreRace); race != nil {
		raceCode = race.Code
	}

	// Ethnicity deliberately defaults to the "Hispanic or Latino" code when
	// the extension is absent. This is the implementation guide's non-missing
	// default, distinct from the empty-string fallback used elsewhere.
	ethnicityCode := "2135-2"
	if eth := patient.OMBCategory(r4.ExtUSCoreEthnicity); eth != nil && eth.Code != "" {
		ethnicityCode = eth.Code
	}

	role.Patient = cda.CDAPerson{
		Name: cda.Name{Given: given, Family: family},
		AdministrativeGenderCode: cda.Code{
			Code:           patient.Gender,
			CodeSystem:     oidAdministrativeGender,
			CodeSystemName: "AdministrativeGender",
		},
		// Birth time comes from the precise birth-time fact, not the coarse
		// birthDate element.
		BirthTime: *cda.Time(formatHL7(patient.BirthTime())),
		RaceCode: cda.Code{
			Code:           raceCode,
			CodeSystem:     oidCDCRaceEthnicity,
			CodeSystemName: "CDCREC",
		},
		EthnicGroupCode: cda.Code{
			Code:           ethnicityCode,
			CodeSystem:     oidCDCRaceEthnicity,
			CodeSystemName: "CDCREC",
		},
		LanguageCommunication: cda.LanguageComm{
			TemplateID: []cda.LanguageTemplateID{
				{Root: tplLanguageCommHITSP, AssigningAuthorityName: "HITSP/C83"},
				{Root: tplLanguageCommIHE, AssigningAuthorityName: "IHE/PCC"},
			},
			LanguageCode: cda.Code{Code: "eng"},
		},
	}

	return cda.RecordTarget{PatientRole: role}
}

func findTelecom(telecoms []r4.ContactPoint, system string) string {
	for _, t := range telecoms {
		if t.System == system {
			return t.Value
		}
	}
	return ""
}

// The author, custodian, legal authenticator, participant and
// documentationOf blocks are static boilerplate: they carry no patient data
// and vary only by generation time and fresh ids.

func buildAuthor(now string) cda.Author {
	return cda.Author{
		Time: *cda.Time(now),
		AssignedAuthor: cda.AssignedAuthor{
			ID: cda.ID{Root: oidNPI, Extension: "1250504853"},
			Addr: cda.Addr{
				StreetAddressLine: "123 Happy St",
				City:              "Sunnyvale",
				State:             "CA",
				PostalCode:        "95008",
				Country:           "US",
			},
			Telecom: cda.Telecom{Use: "WP", Value: "tel:(781)271-3000"},
			AuthoringDevice: &cda.AuthoringDevice{
				ManufacturerModelName: "Clara Health Export System",
				SoftwareName:          "Clara Health Export System",
			},
		},
	}
}

func buildCustodian() cda.Custodian {
	return cda.Custodian{
		AssignedCustodian: cda.AssignedCustodian{
			Organization: cda.CustodianOrg{
				ID:      cda.ID{Root: oidCMSCertification, Extension: "117323"},
				Name:    "Clara Health Test Deck",
				Telecom: cda.Telecom{Use: "WP", Value: "tel:(781)271-3000"},
				Addr: cda.Addr{
					Use:               "HP",
					StreetAddressLine: "202 Burlington Rd.",
					City:              "Bedford",
					State:             "MA",
					PostalCode:        "01730",
					Country:           "US",
				},
			},
		},
	}
}

func buildLegalAuthenticator(now string, newID func() string) cda.LegalAuth {
	return cda.LegalAuth{
		Time:          *cda.Time(now),
		SignatureCode: cda.Code{Code: "S"},
		AssignedEntity: cda.AssignedEntity{
			ID: []cda.ID{{Root: newID()}},
			Addr: cda.Addr{
				StreetAddressLine: "123 Happy St",
				City:              "Sunnyvale",
				State:             "CA",
				PostalCode:        "95008",
				Country:           "US",
			},
			Telecom:        &cda.Telecom{Use: "WP", Value: "tel:(781)271-3000"},
			AssignedPerson: &cda.Person{Name: cda.Name{Given: "John", Family: "Doe"}},
			Organization: &cda.RepOrg{
				ID:   cda.ID{Root: oidExampleOrg},
				Name: "Clara Health Export System",
			},
		},
	}
}

func buildParticipant() cda.Participant {
	return cda.Participant{
		TypeCode: "DEV",
		AssociatedEntity: cda.AssociatedEntity{
			ClassCode: "RGPR",
			ID:        cda.ID{Root: oidCMSProgram, Extension: "0015CPV4ZTB4WBU"},
		},
	}
}

func buildDocumentationOf() cda.DocOf {
	return cda.DocOf{
		TypeCode: "DOC",
		ServiceEvent: cda.ServiceEvent{
			ClassCode: "PCPR",
			EffectiveTime: cda.EffectiveTime{
				Low:  cda.TimeUnknown(),
				High: cda.TimeUnknown(),
			},
			Performer: cda.Performer{
				TypeCode: "PRF",
				Time: cda.EffectiveTime{
					Low:  cda.TimeUnknown(),
					High: cda.TimeUnknown(),
				},
				AssignedEntity: cda.AssignedEntity{
					ID: []cda.ID{
						{Root: oidNPI, Extension: "1250504853"},
						{Root: oidCMSCertification, Extension: "117323"},
					},
					Code: &cda.Code{
						Code:           "207Q00000X",
						CodeSystem:     oidProviderTaxonomy,
						CodeSystemName: "Healthcare Provider Taxonomy (HIPAA)",
					},
					Addr: cda.Addr{
						Use:               "HP",
						StreetAddressLine: "202 Burlington Rd.",
						City:              "Bedford",
						State:             "MA",
						PostalCode:        "01730",
						Country:           "US",
					},
					AssignedPerson: &cda.Person{Name: cda.Name{Given: "Sylvia", Family: "Joseph"}},
					Organization: &cda.RepOrg{
						ID: cda.ID{Root: oidTaxID, Extension: "916854671"},
						Addr: &cda.Addr{
							Use:               "HP",
							StreetAddressLine: "202 Burlington Rd.",
							City:              "Bedford",
							State:             "MA",
							PostalCode:        "01730",
							Country:           "US",
						},
					},
				},
			},
		},
	}
}

// buildMeasureSection identifies the single supported eMeasure. Static per
// patient.
func buildMeasureSection(newID func() string) cda.Section {
	return cda.Section{
		TemplateID: []cda.TemplateID{
			{Root: tplMeasureSection},
			{Root: tplMeasureSectionQDM},
		},
		Code:  cda.Code{Code: loincMeasureDocument, CodeSystem: oidLOINC},
		Title: "Measure Section",
		Text: &cda.SectionText{
			Table: &cda.Table{
				Border: "1",
				Width:  "100%",
				Thead: cda.TableHead{
					Tr: cda.TableHeadRow{Th: []string{"eMeasure Title", "Version specific identifier"}},
				},
				Tbody: cda.TableBody{
					Tr: cda.TableBodyRow{Td: []string{measureTitle, measureVersionSpecificID, ""}},
				},
			},
		},
		Entry: []cda.Entry{{
			Organizer: &cda.Organizer{
				ClassCode: "CLUSTER",
				MoodCode:  "EVN",
				TemplateID: []cda.TemplateID{
					{Root: tplMeasureReference},
					{Root: tplEMeasureReferenceQDM},
				},
				ID:         cda.ID{Root: oidLocalRoot, Extension: newID()},
				StatusCode: cda.Code{Code: "completed"},
				Reference: cda.MeasureRef{
					TypeCode: "REFR",
					ExternalDocument: cda.ExternalDocument{
						ClassCode: "DOC",
						MoodCode:  "EVN",
						ID:        cda.ID{Root: oidEMeasureRoot, Extension: measureVersionSpecificID},
						Text:      measureTitle,
						SetID:     cda.ID{Root: measureSetID},
					},
				},
			},
		}},
	}
}

// buildReportingParametersSection renders the measure period. The period is
// the only input that varies.
func buildReportingParametersSection(period MeasurePeriod, newID func() string) cda.Section {
	return cda.Section{
		TemplateID: []cda.TemplateID{
			{Root: tplReportingParamsSection},
			{Root: tplReportingParamsSectionV2, Extension: "2016-03-01"},
		},
		Code:  cda.Code{Code: loincReportingParameters, CodeSystem: oidLOINC},
		Title: "Reporting Parameters",
		Text:  &cda.SectionText{},
		Entry: []cda.Entry{{
			TypeCode: "DRIV",
			Act: &cda.ActivityAct{
				ClassCode: "ACT",
				MoodCode:  "EVN",
				TemplateID: []cda.TemplateID{
					{Root: tplReportingParamsAct},
					{Root: tplReportingParamsActV2, Extension: "2016-03-01"},
				},
				ID: &cda.ID{Root: oidLocalRoot, Extension: newID()},
				Code: cda.Code{
					Code:        snomedObservationParams,
					CodeSystem:  oidSNOMED,
					DisplayName: "Observation Parameters",
				},
				EffectiveTime: &cda.EffectiveTime{
					Low:  cda.Time(formatHL7(period.Start)),
					High: cda.Time(formatHL7(period.End)),
				},
			},
		}},
	}
}

// buildPatientDataSection concatenates one entry per clinical fact: all
// encounters, then interventions, then procedures, then payers. Each list is
// already ordered by the aggregator.
func buildPatientDataSection(data *PatientData) cda.Section {
	entries := make([]cda.Entry, 0,
		len(data.Encounters)+len(data.Interventions)+len(data.Procedures)+len(data.Coverages))

	for i := range data.Encounters {
		entries = append(entries, buildEncounterEntry(&data.Encounters[i]))
	}
	for i := range data.Interventions {
		entries = append(entries, buildInterventionEntry(&data.Interventions[i]))
	}
	for i := range data.Procedures {
		entries = append(entries, buildProcedureEntry(&data.Procedures[i]))
	}
	for i := range data.Coverages {
		entries = append(entries, buildPayerEntry(&data.Coverages[i]))
	}

	return cda.Section{
		TemplateID: []cda.TemplateID{
			{Root: tplPatientDataSection},
			{Root: tplPatientDataSectionQDM, Extension: "2021-08-01"},
			{Root: tplPatientDataSectionQDMV2, Extension: "2022-02-01"},
		},
		Code:  cda.Code{Code: loincPatientData, CodeSystem: oidLOINC},
		Title: "Patient Data",
		Text:  &cda.SectionText{},
		Entry: entries,
	}
}
