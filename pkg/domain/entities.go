// Package domain defines the PDX graph entities, their natural-key helpers,
// and the collaborator contracts consumed by the construction pipeline.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// EntityType identifies the kind of node emitted into the graph.
type EntityType string

// Supported entity type identifiers used for registry buckets, errors and graph labels.
const (
	EntityProvider          EntityType = "provider"
	EntityPatient           EntityType = "patient"
	EntitySnapshot          EntityType = "patient_snapshot"
	EntitySample            EntityType = "sample"
	EntityModel             EntityType = "model"
	EntitySpecimen          EntityType = "specimen"
	EntityCharacterization  EntityType = "molecular_characterization"
	EntityPlatform          EntityType = "platform"
	EntityMarker            EntityType = "marker"
	EntityTerm              EntityType = "term"
	EntityHostStrain        EntityType = "host_strain"
	EntityExternalURL       EntityType = "external_url"
	EntityGroup             EntityType = "group"
	EntityTreatmentProtocol EntityType = "treatment_protocol"
)

// NotSpecified is substituted for host strain nomenclature left blank on xenograft rows.
const NotSpecified = "Not Specified"

// idNamespace scopes deterministic node identifiers so reloading the same
// source produces the same ids.
var idNamespace = uuid.MustParse("6f1d2a4e-93b4-5c7e-8a61-2b0f4d9c7e10")

// NaturalID derives a stable identifier from the natural key parts of an entity.
func NaturalID(kind EntityType, parts ...string) string {
	key := string(kind) + "|" + strings.Join(parts, "|")
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// Provider is the source organization of a load. Exactly one exists per load;
// the sharing stage overwrites Type and Contact.
type Provider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	InternalURL  string `json:"internal_url,omitempty"`
	Type         string `json:"provider_type,omitempty"`
	Contact      string `json:"contact,omitempty"`
}

// NewProvider builds a provider keyed by its abbreviation.
func NewProvider(name, abbreviation, internalURL string) *Provider {
	return &Provider{
		ID:           NaturalID(EntityProvider, abbreviation),
		Name:         name,
		Abbreviation: abbreviation,
		InternalURL:  internalURL,
	}
}

// Patient is keyed by its source identifier within one provider.
type Patient struct {
	ID                  string             `json:"id"`
	ExternalID          string             `json:"external_id"`
	DataSource          string             `json:"data_source"`
	Sex                 string             `json:"sex,omitempty"`
	Ethnicity           string             `json:"ethnicity,omitempty"`
	EthnicityAssessment string             `json:"ethnicity_assessment,omitempty"`
	History             string             `json:"cancer_relevant_history,omitempty"`
	FirstDiagnosis      string             `json:"first_diagnosis,omitempty"`
	AgeAtFirstDiagnosis string             `json:"age_at_first_diagnosis,omitempty"`
	Provider            *Provider          `json:"provider,omitempty"`
	Snapshots           []*PatientSnapshot `json:"snapshots,omitempty"`
}

// NewPatient builds a patient owned by provider.
func NewPatient(externalID string, provider *Provider) *Patient {
	ds := ""
	if provider != nil {
		ds = provider.Abbreviation
	}
	return &Patient{
		ID:         NaturalID(EntityPatient, ds, externalID),
		ExternalID: externalID,
		DataSource: ds,
		Provider:   provider,
	}
}

// CollectionPoint identifies a clinical timepoint of a patient.
type CollectionPoint struct {
	Age         string `json:"age_at_collection,omitempty"`
	Date        string `json:"date_at_collection,omitempty"`
	Event       string `json:"collection_event,omitempty"`
	ElapsedTime string `json:"elapsed_time,omitempty"`
}

// Snapshot returns the snapshot recorded for point, if any.
func (p *Patient) Snapshot(point CollectionPoint) (*PatientSnapshot, bool) {
	for _, s := range p.Snapshots {
		if s.CollectionPoint == point {
			return s, true
		}
	}
	return nil, false
}

// SnapshotFor returns the snapshot for point, creating it when absent. The
// boolean reports whether a new snapshot was created.
func (p *Patient) SnapshotFor(point CollectionPoint) (*PatientSnapshot, bool) {
	if s, ok := p.Snapshot(point); ok {
		return s, false
	}
	s := &PatientSnapshot{
		ID:              NaturalID(EntitySnapshot, p.ID, point.Age, point.Date, point.Event, point.ElapsedTime),
		CollectionPoint: point,
	}
	p.Snapshots = append(p.Snapshots, s)
	return s, true
}

// LastSnapshot returns the most recently added snapshot.
func (p *Patient) LastSnapshot() (*PatientSnapshot, bool) {
	if len(p.Snapshots) == 0 {
		return nil, false
	}
	return p.Snapshots[len(p.Snapshots)-1], true
}

// PatientSnapshot is one clinical timepoint of a patient.
type PatientSnapshot struct {
	ID string `json:"id"`
	CollectionPoint
	VirologyStatus string               `json:"virology_status,omitempty"`
	TreatmentNaive string               `json:"treatment_naive,omitempty"`
	Samples        []*Sample            `json:"samples,omitempty"`
	Treatments     []*TreatmentProtocol `json:"treatment_protocols,omitempty"`
}

// AddSample attaches sample unless it is already present.
func (s *PatientSnapshot) AddSample(sample *Sample) {
	for _, existing := range s.Samples {
		if existing == sample {
			return
		}
	}
	s.Samples = append(s.Samples, sample)
}

// AddTreatment attaches a treatment protocol to the timepoint.
func (s *PatientSnapshot) AddTreatment(tp *TreatmentProtocol) {
	s.Treatments = append(s.Treatments, tp)
}

// SampleOrigin distinguishes patient tumour samples from engrafted ones.
type SampleOrigin string

const (
	OriginPatient   SampleOrigin = "patient"
	OriginXenograft SampleOrigin = "xenograft"
)

// ParseSampleOrigin matches the sample_origin column case-insensitively.
func ParseSampleOrigin(raw string) (SampleOrigin, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(OriginPatient):
		return OriginPatient, true
	case string(OriginXenograft):
		return OriginXenograft, true
	default:
		return "", false
	}
}

// Sample is a physical specimen, either collected from the patient or
// harvested from an engrafted host.
type Sample struct {
	ID                  string                       `json:"id"`
	SourceSampleID      string                       `json:"source_sample_id,omitempty"`
	Origin              SampleOrigin                 `json:"origin"`
	Diagnosis           string                       `json:"diagnosis,omitempty"`
	TumorType           *Term                        `json:"tumor_type,omitempty"`
	OriginTissue        *Term                        `json:"origin_tissue,omitempty"`
	SampleSite          *Term                        `json:"sample_site,omitempty"`
	Stage               string                       `json:"stage,omitempty"`
	StageClassification string                       `json:"stage_classification,omitempty"`
	Grade               string                       `json:"grade,omitempty"`
	GradeClassification string                       `json:"grade_classification,omitempty"`
	Characterizations   []*MolecularCharacterization `json:"molecular_characterizations,omitempty"`
}

// Characterization returns the characterization for (kind, platform name), if any.
func (s *Sample) Characterization(kind CharacterizationType, platform string) (*MolecularCharacterization, bool) {
	for _, mc := range s.Characterizations {
		if mc.Type == kind && mc.Platform != nil && mc.Platform.Name == platform {
			return mc, true
		}
	}
	return nil, false
}

// CharacterizationFor returns the characterization for (kind, platform),
// creating it with a single empty marker association when absent.
func (s *Sample) CharacterizationFor(kind CharacterizationType, platform *Platform) *MolecularCharacterization {
	if mc, ok := s.Characterization(kind, platform.Name); ok {
		return mc
	}
	mc := &MolecularCharacterization{
		ID:           NaturalID(EntityCharacterization, s.ID, string(kind), platform.Name),
		Type:         kind,
		Platform:     platform,
		Associations: []*MarkerAssociation{{}},
	}
	s.Characterizations = append(s.Characterizations, mc)
	return mc
}

// QualityAssurance records one validation of a model.
type QualityAssurance struct {
	Technology           string `json:"technology,omitempty"`
	Description          string `json:"description,omitempty"`
	Passages             string `json:"passages,omitempty"`
	ValidationHostStrain string `json:"validation_host_strain,omitempty"`
}

// ModelCreation is one patient-derived xenograft lineage.
type ModelCreation struct {
	ID               string               `json:"id"`
	SourcePDXID      string               `json:"source_pdx_id"`
	DataSource       string               `json:"data_source"`
	Publications     string               `json:"publications,omitempty"`
	QualityAssurance []QualityAssurance   `json:"quality_assurance,omitempty"`
	ExternalURLs     []*ExternalURL       `json:"external_urls,omitempty"`
	Groups           []*Group             `json:"groups,omitempty"`
	Sample           *Sample              `json:"sample,omitempty"`
	Specimens        []*Specimen          `json:"specimens,omitempty"`
	RelatedSamples   []*Sample            `json:"-"`
	Treatments       []*TreatmentProtocol `json:"treatment_protocols,omitempty"`
}

// NewModel builds a model owned by the provider abbreviated dataSource.
func NewModel(sourcePDXID, dataSource string) *ModelCreation {
	return &ModelCreation{
		ID:          NaturalID(EntityModel, dataSource, sourcePDXID),
		SourcePDXID: sourcePDXID,
		DataSource:  dataSource,
	}
}

// Specimen returns the specimen at (passage, host strain nomenclature), if any.
func (m *ModelCreation) Specimen(passage, hostStrain string) (*Specimen, bool) {
	for _, sp := range m.Specimens {
		if sp.Passage == passage && sp.HostStrainNomenclature == hostStrain {
			return sp, true
		}
	}
	return nil, false
}

// AddSpecimen attaches sp and records its sample as related.
func (m *ModelCreation) AddSpecimen(sp *Specimen) {
	m.Specimens = append(m.Specimens, sp)
	if sp.Sample != nil {
		m.AddRelatedSample(sp.Sample)
	}
}

// SetPrimarySample marks sample as the patient sample the model derives from.
func (m *ModelCreation) SetPrimarySample(sample *Sample) {
	m.Sample = sample
	m.AddRelatedSample(sample)
}

// AddRelatedSample records sample for downstream traversal, once.
func (m *ModelCreation) AddRelatedSample(sample *Sample) {
	for _, existing := range m.RelatedSamples {
		if existing == sample {
			return
		}
	}
	m.RelatedSamples = append(m.RelatedSamples, sample)
}

// AddQualityAssurance appends a validation record.
func (m *ModelCreation) AddQualityAssurance(qa QualityAssurance) {
	m.QualityAssurance = append(m.QualityAssurance, qa)
}

// AddGroup attaches a project or accessibility group once.
func (m *ModelCreation) AddGroup(g *Group) {
	for _, existing := range m.Groups {
		if existing.ID == g.ID {
			return
		}
	}
	m.Groups = append(m.Groups, g)
}

// AddTreatment attaches a drug dosing protocol.
func (m *ModelCreation) AddTreatment(tp *TreatmentProtocol) {
	m.Treatments = append(m.Treatments, tp)
}

// Specimen is one passage and host strain instance of a model.
type Specimen struct {
	ID                     string      `json:"id"`
	Passage                string      `json:"passage,omitempty"`
	HostStrainNomenclature string      `json:"host_strain_nomenclature,omitempty"`
	HostStrain             *HostStrain `json:"host_strain,omitempty"`
	EngraftmentSite        *Term       `json:"engraftment_site,omitempty"`
	EngraftmentType        *Term       `json:"engraftment_type,omitempty"`
	EngraftmentMaterial    *Term       `json:"engraftment_material,omitempty"`
	Sample                 *Sample     `json:"sample"`
}

// NewSpecimen builds a specimen of model with a fresh xenograft sample.
func NewSpecimen(model *ModelCreation, passage, hostStrain, sourceSampleID string) *Specimen {
	id := NaturalID(EntitySpecimen, model.ID, passage, hostStrain)
	return &Specimen{
		ID:                     id,
		Passage:                passage,
		HostStrainNomenclature: hostStrain,
		Sample: &Sample{
			ID:             NaturalID(EntitySample, id),
			SourceSampleID: sourceSampleID,
			Origin:         OriginXenograft,
		},
	}
}

// TermKind names a family of shared reference terms.
type TermKind string

const (
	TermTissue              TermKind = "tissue"
	TermTumorType           TermKind = "tumor_type"
	TermEngraftmentSite     TermKind = "engraftment_site"
	TermEngraftmentType     TermKind = "engraftment_type"
	TermEngraftmentMaterial TermKind = "engraftment_material"
)

// Term is a shared reference entity identified by kind and name.
type Term struct {
	ID   string   `json:"id"`
	Kind TermKind `json:"kind"`
	Name string   `json:"name"`
}

// NewTerm builds a term with its natural id.
func NewTerm(kind TermKind, name string) *Term {
	return &Term{ID: NaturalID(EntityTerm, string(kind), name), Kind: kind, Name: name}
}

// HostStrain is the engraftment host, keyed by nomenclature.
type HostStrain struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Symbol string `json:"symbol"`
}

// NewHostStrain builds a host strain with its natural id.
func NewHostStrain(name, symbol string) *HostStrain {
	return &HostStrain{ID: NaturalID(EntityHostStrain, symbol), Name: name, Symbol: symbol}
}

// URLKind classifies an external link of a model.
type URLKind string

const (
	URLContact URLKind = "contact"
	URLSource  URLKind = "source"
)

// ExternalURL is a contact or source link shared between models.
type ExternalURL struct {
	ID   string  `json:"id"`
	Kind URLKind `json:"kind"`
	URL  string  `json:"url"`
}

// NewExternalURL builds a link with its natural id.
func NewExternalURL(kind URLKind, url string) *ExternalURL {
	return &ExternalURL{ID: NaturalID(EntityExternalURL, string(kind), url), Kind: kind, URL: url}
}

// GroupKind classifies model groups.
type GroupKind string

const (
	GroupProject       GroupKind = "project"
	GroupAccessibility GroupKind = "accessibility"
)

// Group is a project or accessibility grouping of models. For accessibility
// groups Name holds the accessibility value and Detail the access modality.
type Group struct {
	ID     string    `json:"id"`
	Kind   GroupKind `json:"kind"`
	Name   string    `json:"name"`
	Detail string    `json:"detail,omitempty"`
}

// NewGroup builds a group with its natural id.
func NewGroup(kind GroupKind, name, detail string) *Group {
	return &Group{ID: NaturalID(EntityGroup, string(kind), name, detail), Kind: kind, Name: name, Detail: detail}
}

// Platform is an assay platform of a provider for one characterization type.
type Platform struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Type       CharacterizationType `json:"type"`
	DataSource string               `json:"data_source"`
	URL        string               `json:"url,omitempty"`
}

// NewPlatform builds a platform owned by the provider abbreviated dataSource.
func NewPlatform(kind CharacterizationType, name, dataSource string) *Platform {
	return &Platform{
		ID:         NaturalID(EntityPlatform, dataSource, string(kind), name),
		Name:       name,
		Type:       kind,
		DataSource: dataSource,
	}
}
