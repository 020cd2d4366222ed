// Package qrda implements the QRDA Category I document assembly engine for
// the CMS68v14 "documentation of current medications" measure.
//
// The engine is a batch transform: patient + measure period in, XML document
// (or the designed absent result) out. All clock and id dependencies are
// injected so document assembly stays deterministic under test.
package qrda

// MeasureCode identifies the single eligible measure this engine supports.
const MeasureCode = "CMS68v14"

// Measure metadata, fixed by the published eMeasure definition.
const (
	measureTitle = "Percentage of visits for which the eligible clinician attests to " +
		"documenting a list of current medications using all immediate resources " +
		"available on the date of the encounter"
	measureVersionSpecificID = "8A6D0454-8DF0-2D9F-018D-F6AEBA950637"
	measureSetID             = "9A032D9C-3D9B-11E1-8634-00237D5BF174"
)

// SNOMED category codes partitioning Procedure resources for this measure.
const (
	CategoryIntervention        = "409063005"
	CategoryDiagnosticProcedure = "103693007"
)

// Code system OIDs.
const (
	oidHL7RegisteredModels  = "2.16.840.1.113883.1.3"
	oidLOINC                = "2.16.840.1.113883.6.1"
	oidSNOMED               = "2.16.840.1.113883.6.96"
	oidCPT                  = "2.16.840.1.113883.6.12"
	oidActCode              = "2.16.840.1.113883.5.4"
	oidAdministrativeGender = "2.16.840.1.113883.5.1"
	oidConfidentiality      = "2.16.840.1.113883.5.25"
	oidCDCRaceEthnicity     = "2.16.840.1.113883.6.238"
	oidPaymentTypology      = "2.16.840.1.113883.3.221.5"
	oidNPI                  = "2.16.840.1.113883.4.6"
	oidCMSCertification     = "2.16.840.1.113883.4.336"
	oidProviderTaxonomy     = "2.16.840.1.113883.6.101"
	oidTaxID                = "2.16.840.1.113883.4.2"
	oidCMSProgram           = "2.16.840.1.113883.3.2074.1"
	oidEMeasureRoot         = "2.16.840.1.113883.4.738"
	oidExampleOrg           = "2.16.840.1.113883.19.5"
)

// Local instance identifier root for resource-derived ids.
const oidLocalRoot = "1.3.6.1.4.1.115"

// Document and section template identifiers from the QRDA Category I / C-CDA
// implementation guides.
const (
	tplUSRealmHeader = "2.16.840.1.113883.10.20.22.1.1"
	tplQRDA          = "2.16.840.1.113883.10.20.24.1.1"
	tplQDMQRDA       = "2.16.840.1.113883.10.20.24.1.2"
	tplCMSQRDACatI   = "2.16.840.1.113883.10.20.24.1.3"

	tplMeasureSection       = "2.16.840.1.113883.10.20.24.2.2"
	tplMeasureSectionQDM    = "2.16.840.1.113883.10.20.24.2.3"
	tplMeasureReference     = "2.16.840.1.113883.10.20.24.3.98"
	tplEMeasureReferenceQDM = "2.16.840.1.113883.10.20.24.3.97"

	tplReportingParamsSection   = "2.16.840.1.113883.10.20.17.2.1"
	tplReportingParamsSectionV2 = "2.16.840.1.113883.10.20.17.2.1.1"
	tplReportingParamsAct       = "2.16.840.1.113883.10.20.17.3.8"
	tplReportingParamsActV2     = "2.16.840.1.113883.10.20.17.3.8.1"

	tplPatientDataSection      = "2.16.840.1.113883.10.20.17.2.4"
	tplPatientDataSectionQDM   = "2.16.840.1.113883.10.20.24.2.1"
	tplPatientDataSectionQDMV2 = "2.16.840.1.113883.10.20.24.2.1.1"

	tplEncounterActivities    = "2.16.840.1.113883.10.20.22.4.49"
	tplEncounterPerformed     = "2.16.840.1.113883.10.20.24.3.23"
	tplEncounterDiagnosisQDM  = "2.16.840.1.113883.10.20.24.3.168"
	tplEncounterClassAct      = "2.16.840.1.113883.10.20.24.3.171"
	tplRankObservation        = "2.16.840.1.113883.10.20.24.3.166"
	tplProcedureActivityAct   = "2.16.840.1.113883.10.20.22.4.12"
	tplInterventionPerformed  = "2.16.840.1.113883.10.20.24.3.32"
	tplProcedurePerformed     = "2.16.840.1.113883.10.20.24.3.64"
	tplProcedureActivity      = "2.16.840.1.113883.10.20.22.4.14"
	tplAuthorDateTime         = "2.16.840.1.113883.10.20.24.3.155"
	tplNegationRationale      = "2.16.840.1.113883.10.20.24.3.88"
	tplPatientCharacteristic  = "2.16.840.1.113883.10.20.24.3.55"
	tplLanguageCommHITSP      = "2.16.840.1.113883.3.88.11.83.2"
	tplLanguageCommIHE        = "1.3.6.1.4.1.19376.1.5.3.1.2.1"
)

// LOINC codes used by the document.
const (
	loincQualityMeasureReport = "55182-0"
	loincMeasureDocument      = "55186-1"
	loincReportingParameters  = "55187-9"
	loincPatientData          = "55188-7"
	loincDiagnosis            = "29308-4"
	loincReasonCareAction     = "77301-0"
	loincPaymentSource        = "48768-6"
)

// SNOMED codes used by the document.
const (
	snomedObservationParams = "252116004"
	snomedRank              = "263486008"
)
