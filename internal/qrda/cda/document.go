package cda

import "encoding/xml"

// ClinicalDocument is the root of a QRDA Category I document.
type ClinicalDocument struct {
	XMLName   xml.Name `xml:"ClinicalDocument"`
	XmlnsXSI  string   `xml:"xmlns:xsi,attr"`
	Xmlns     string   `xml:"xmlns,attr"`
	XmlnsVoc  string   `xml:"xmlns:voc,attr"`
	XmlnsSDTC string   `xml:"xmlns:sdtc,attr"`

	RealmCode           Code          `xml:"realmCode"`
	TypeID              ID            `xml:"typeId"`
	TemplateID          []TemplateID  `xml:"templateId"`
	ID                  ID            `xml:"id"`
	Code                Code          `xml:"code"`
	Title               string        `xml:"title"`
	EffectiveTime       TimeValue     `xml:"effectiveTime"`
	ConfidentialityCode Code          `xml:"confidentialityCode"`
	LanguageCode        Code          `xml:"languageCode"`
	RecordTarget        RecordTarget  `xml:"recordTarget"`
	Author              Author        `xml:"author"`
	Custodian           Custodian     `xml:"custodian"`
	LegalAuthenticator  LegalAuth     `xml:"legalAuthenticator"`
	Participant         Participant   `xml:"participant"`
	DocumentationOf     DocOf         `xml:"documentationOf"`
	Component           BodyComponent `xml:"component"`
}

// RecordTarget carries the patient demographics block.
type RecordTarget struct {
	PatientRole PatientRole `xml:"patientRole"`
}

// PatientRole holds patient identity, address, telecoms and person details.
type PatientRole struct {
	ID      ID        `xml:"id"`
	Addr    *Addr     `xml:"addr,omitempty"`
	Telecom []Telecom `xml:"telecom,omitempty"`
	Patient CDAPerson `xml:"patient"`
}

// CDAPerson is the patient element inside the patientRole.
type CDAPerson struct {
	Name                     Name         `xml:"name"`
	AdministrativeGenderCode Code         `xml:"administrativeGenderCode"`
	BirthTime                TimeValue    `xml:"birthTime"`
	RaceCode                 Code         `xml:"raceCode"`
	EthnicGroupCode          Code         `xml:"ethnicGroupCode"`
	LanguageCommunication    LanguageComm `xml:"languageCommunication"`
}

// LanguageComm is the languageCommunication block.
type LanguageComm struct {
	TemplateID   []LanguageTemplateID `xml:"templateId"`
	LanguageCode Code                 `xml:"languageCode"`
}

// LanguageTemplateID carries the assigningAuthorityName variant used only by
// the languageCommunication templates.
type LanguageTemplateID struct {
	Root                   string `xml:"root,attr"`
	AssigningAuthorityName string `xml:"assigningAuthorityName,attr,omitempty"`
}

// Author is the document author boilerplate block.
type Author struct {
	Time           TimeValue      `xml:"time"`
	AssignedAuthor AssignedAuthor `xml:"assignedAuthor"`
}

// AssignedAuthor identifies the authoring device.
type AssignedAuthor struct {
	ID              ID               `xml:"id"`
	Addr            Addr             `xml:"addr"`
	Telecom         Telecom          `xml:"telecom"`
	AuthoringDevice *AuthoringDevice `xml:"assignedAuthoringDevice,omitempty"`
}

// AuthoringDevice names the generating software.
type AuthoringDevice struct {
	ManufacturerModelName string `xml:"manufacturerModelName"`
	SoftwareName          string `xml:"softwareName"`
}

// Custodian is the document custodian boilerplate block.
type Custodian struct {
	AssignedCustodian AssignedCustodian `xml:"assignedCustodian"`
}

// AssignedCustodian wraps the custodian organization.
type AssignedCustodian struct {
	Organization CustodianOrg `xml:"representedCustodianOrganization"`
}

// CustodianOrg identifies the custodian organization.
type CustodianOrg struct {
	ID      ID      `xml:"id"`
	Name    string  `xml:"name"`
	Telecom Telecom `xml:"telecom"`
	Addr    Addr    `xml:"addr"`
}

// LegalAuth is the legal authenticator boilerplate block.
type LegalAuth struct {
	Time           TimeValue      `xml:"time"`
	SignatureCode  Code           `xml:"signatureCode"`
	AssignedEntity AssignedEntity `xml:"assignedEntity"`
}

// AssignedEntity identifies a person/organization pair.
type AssignedEntity struct {
	ID             []ID     `xml:"id"`
	Code           *Code    `xml:"code,omitempty"`
	Addr           Addr     `xml:"addr"`
	Telecom        *Telecom `xml:"telecom,omitempty"`
	AssignedPerson *Person  `xml:"assignedPerson,omitempty"`
	Organization   *RepOrg  `xml:"representedOrganization,omitempty"`
}

// Person wraps a person name.
type Person struct {
	Name Name `xml:"name"`
}

// RepOrg is a represented organization.
type RepOrg struct {
	ID   ID     `xml:"id"`
	Name string `xml:"name,omitempty"`
	Addr *Addr  `xml:"addr,omitempty"`
}

// Participant is the device participant boilerplate block.
type Participant struct {
	TypeCode         string           `xml:"typeCode,attr"`
	AssociatedEntity AssociatedEntity `xml:"associatedEntity"`
}

// AssociatedEntity identifies the registered product.
type AssociatedEntity struct {
	ClassCode string `xml:"classCode,attr"`
	ID        ID     `xml:"id"`
}

// DocOf is the documentationOf boilerplate block.
type DocOf struct {
	TypeCode     string       `xml:"typeCode,attr"`
	ServiceEvent ServiceEvent `xml:"serviceEvent"`
}

// ServiceEvent is the care provision event.
type ServiceEvent struct {
	ClassCode     string        `xml:"classCode,attr"`
	EffectiveTime EffectiveTime `xml:"effectiveTime"`
	Performer     Performer     `xml:"performer"`
}

// Performer is the service event performer.
type Performer struct {
	TypeCode       string         `xml:"typeCode,attr"`
	Time           EffectiveTime  `xml:"time"`
	AssignedEntity AssignedEntity `xml:"assignedEntity"`
}

// BodyComponent wraps the structured body.
type BodyComponent struct {
	StructuredBody StructuredBody `xml:"structuredBody"`
}

// StructuredBody holds the document sections.
type StructuredBody struct {
	Component []SectionComponent `xml:"component"`
}

// SectionComponent wraps one section.
type SectionComponent struct {
	Section Section `xml:"section"`
}
