package neo4jstore

import (
	"fmt"
	"sort"
	"strconv"

	"pdxgraph/internal/platform/neo4jdb"
	"pdxgraph/pkg/domain"
)

// Node labels.
const (
	LabelProvider          = "Provider"
	LabelPatient           = "Patient"
	LabelSnapshot          = "PatientSnapshot"
	LabelSample            = "Sample"
	LabelModel             = "ModelCreation"
	LabelSpecimen          = "Specimen"
	LabelHostStrain        = "HostStrain"
	LabelTerm              = "OntologyTerm"
	LabelExternalURL       = "ExternalUrl"
	LabelGroup             = "Group"
	LabelQualityAssurance  = "QualityAssurance"
	LabelPlatform          = "Platform"
	LabelCharacterization  = "MolecularCharacterization"
	LabelAssociation       = "MarkerAssociation"
	LabelMarker            = "Marker"
	LabelTreatmentProtocol = "TreatmentProtocol"
	LabelTreatment         = "Treatment"
)

// Labels lists every node label the store writes, in write order.
var Labels = []string{
	LabelProvider, LabelPatient, LabelSnapshot, LabelSample, LabelModel, LabelSpecimen,
	LabelHostStrain, LabelTerm, LabelExternalURL, LabelGroup, LabelQualityAssurance,
	LabelPlatform, LabelCharacterization, LabelAssociation, LabelMarker,
	LabelTreatmentProtocol, LabelTreatment,
}

type relKey struct {
	Type string
	From string
	To   string
}

// graph accumulates deduplicated nodes and relationships before they are
// turned into UNWIND/MERGE statements.
type graph struct {
	nodes map[string]map[string]map[string]any
	rels  map[relKey]map[[2]string]map[string]any
}

func newGraph() *graph {
	return &graph{
		nodes: make(map[string]map[string]map[string]any),
		rels:  make(map[relKey]map[[2]string]map[string]any),
	}
}

func (g *graph) node(label, id string, props map[string]any) {
	if id == "" {
		return
	}
	byID := g.nodes[label]
	if byID == nil {
		byID = make(map[string]map[string]any)
		g.nodes[label] = byID
	}
	row := byID[id]
	if row == nil {
		row = map[string]any{"id": id}
		byID[id] = row
	}
	for k, v := range props {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		row[k] = v
	}
}

func (g *graph) rel(typ, fromLabel, fromID, toLabel, toID string, props map[string]any) {
	if fromID == "" || toID == "" {
		return
	}
	k := relKey{Type: typ, From: fromLabel, To: toLabel}
	byPair := g.rels[k]
	if byPair == nil {
		byPair = make(map[[2]string]map[string]any)
		g.rels[k] = byPair
	}
	if props == nil {
		props = map[string]any{}
	}
	row := map[string]any{"from": fromID, "to": toID, "props": props}
	byPair[[2]string{fromID, toID}] = row
}

func (g *graph) addProvider(p *domain.Provider) {
	if p == nil {
		return
	}
	g.node(LabelProvider, p.ID, map[string]any{
		"name":          p.Name,
		"abbreviation":  p.Abbreviation,
		"internal_url":  p.InternalURL,
		"provider_type": p.Type,
		"contact":       p.Contact,
	})
}

func (g *graph) addPatient(p *domain.Patient) {
	g.node(LabelPatient, p.ID, map[string]any{
		"external_id":             p.ExternalID,
		"data_source":             p.DataSource,
		"sex":                     p.Sex,
		"ethnicity":               p.Ethnicity,
		"ethnicity_assessment":    p.EthnicityAssessment,
		"cancer_relevant_history": p.History,
		"first_diagnosis":         p.FirstDiagnosis,
		"age_at_first_diagnosis":  p.AgeAtFirstDiagnosis,
	})
	if p.Provider != nil {
		g.addProvider(p.Provider)
		g.rel("FROM_PROVIDER", LabelPatient, p.ID, LabelProvider, p.Provider.ID, nil)
	}
	for _, snap := range p.Snapshots {
		g.node(LabelSnapshot, snap.ID, map[string]any{
			"age_at_collection":  snap.Age,
			"date_at_collection": snap.Date,
			"collection_event":   snap.Event,
			"elapsed_time":       snap.ElapsedTime,
			"virology_status":    snap.VirologyStatus,
			"treatment_naive":    snap.TreatmentNaive,
		})
		g.rel("HAS_SNAPSHOT", LabelPatient, p.ID, LabelSnapshot, snap.ID, nil)
		for _, s := range snap.Samples {
			g.addSample(s)
			g.rel("HAS_SAMPLE", LabelSnapshot, snap.ID, LabelSample, s.ID, nil)
		}
		for i, tp := range snap.Treatments {
			id := g.addTreatment(snap.ID, i, tp)
			g.rel("RECEIVED_TREATMENT", LabelSnapshot, snap.ID, LabelTreatmentProtocol, id, nil)
		}
	}
}

func (g *graph) addTerm(owner, ownerID, typ string, t *domain.Term) {
	if t == nil {
		return
	}
	g.node(LabelTerm, t.ID, map[string]any{"kind": string(t.Kind), "name": t.Name})
	g.rel(typ, owner, ownerID, LabelTerm, t.ID, nil)
}

func (g *graph) addSample(s *domain.Sample) {
	if s == nil {
		return
	}
	g.node(LabelSample, s.ID, map[string]any{
		"source_sample_id":     s.SourceSampleID,
		"origin":               string(s.Origin),
		"diagnosis":            s.Diagnosis,
		"stage":                s.Stage,
		"stage_classification": s.StageClassification,
		"grade":                s.Grade,
		"grade_classification": s.GradeClassification,
	})
	g.addTerm(LabelSample, s.ID, "TUMOR_TYPE", s.TumorType)
	g.addTerm(LabelSample, s.ID, "ORIGIN_TISSUE", s.OriginTissue)
	g.addTerm(LabelSample, s.ID, "SAMPLE_SITE", s.SampleSite)
	for _, mc := range s.Characterizations {
		g.addCharacterization(s.ID, mc)
	}
}

func (g *graph) addCharacterization(sampleID string, mc *domain.MolecularCharacterization) {
	g.node(LabelCharacterization, mc.ID, map[string]any{"type": string(mc.Type)})
	g.rel("CHARACTERIZED_BY", LabelSample, sampleID, LabelCharacterization, mc.ID, nil)
	if p := mc.Platform; p != nil {
		g.node(LabelPlatform, p.ID, map[string]any{
			"name":        p.Name,
			"type":        string(p.Type),
			"data_source": p.DataSource,
			"url":         p.URL,
		})
		g.rel("ON_PLATFORM", LabelCharacterization, mc.ID, LabelPlatform, p.ID, nil)
	}
	for i, ma := range mc.Associations {
		if ma == nil {
			continue
		}
		id := domain.NaturalID("marker_association", mc.ID, strconv.Itoa(i))
		g.node(LabelAssociation, id, map[string]any{
			"molecular_data": ma.Encoded,
			"row_count":      len(ma.Data),
		})
		g.rel("HAS_ASSOCIATION", LabelCharacterization, mc.ID, LabelAssociation, id, nil)
		for _, symbol := range ma.Markers() {
			markerID := domain.NaturalID(domain.EntityMarker, symbol)
			g.node(LabelMarker, markerID, map[string]any{"hgnc_symbol": symbol})
			g.rel("MEASURES", LabelAssociation, id, LabelMarker, markerID, nil)
		}
	}
}

func (g *graph) addTreatment(ownerID string, idx int, tp *domain.TreatmentProtocol) string {
	id := domain.NaturalID(domain.EntityTreatmentProtocol, ownerID, strconv.Itoa(idx))
	g.node(LabelTreatmentProtocol, id, map[string]any{
		"response":                tp.Response,
		"response_classification": tp.ResponseClassification,
		"passage_range":           tp.PassageRange,
		"starting_date":           tp.StartingDate,
		"duration":                tp.Duration,
		"schedule":                tp.Schedule,
		"treatment_type":          tp.Kind,
	})
	for pos, c := range tp.Components {
		drugID := domain.NaturalID("treatment", c.Treatment.Name)
		g.node(LabelTreatment, drugID, map[string]any{"name": c.Treatment.Name})
		g.rel("HAS_COMPONENT", LabelTreatmentProtocol, id, LabelTreatment, drugID, map[string]any{
			"dose":     c.Dose,
			"position": pos,
		})
	}
	return id
}

func (g *graph) addModel(m *domain.ModelCreation) {
	g.node(LabelModel, m.ID, map[string]any{
		"source_pdx_id": m.SourcePDXID,
		"data_source":   m.DataSource,
		"publications":  m.Publications,
	})
	if m.Sample != nil {
		g.addSample(m.Sample)
		g.rel("DERIVED_FROM", LabelModel, m.ID, LabelSample, m.Sample.ID, nil)
	}
	for i, qa := range m.QualityAssurance {
		id := domain.NaturalID("quality_assurance", m.ID, strconv.Itoa(i))
		g.node(LabelQualityAssurance, id, map[string]any{
			"technology":             qa.Technology,
			"description":            qa.Description,
			"passages":               qa.Passages,
			"validation_host_strain": qa.ValidationHostStrain,
		})
		g.rel("VALIDATED_BY", LabelModel, m.ID, LabelQualityAssurance, id, nil)
	}
	for _, u := range m.ExternalURLs {
		g.node(LabelExternalURL, u.ID, map[string]any{"kind": string(u.Kind), "url": u.URL})
		g.rel("HAS_URL", LabelModel, m.ID, LabelExternalURL, u.ID, nil)
	}
	for _, grp := range m.Groups {
		g.node(LabelGroup, grp.ID, map[string]any{"kind": string(grp.Kind), "name": grp.Name, "detail": grp.Detail})
		g.rel("IN_GROUP", LabelModel, m.ID, LabelGroup, grp.ID, nil)
	}
	for _, sp := range m.Specimens {
		g.node(LabelSpecimen, sp.ID, map[string]any{
			"passage":                  sp.Passage,
			"host_strain_nomenclature": sp.HostStrainNomenclature,
		})
		g.rel("HAS_SPECIMEN", LabelModel, m.ID, LabelSpecimen, sp.ID, nil)
		if h := sp.HostStrain; h != nil {
			g.node(LabelHostStrain, h.ID, map[string]any{"name": h.Name, "symbol": h.Symbol})
			g.rel("ENGRAFTED_IN", LabelSpecimen, sp.ID, LabelHostStrain, h.ID, nil)
		}
		g.addTerm(LabelSpecimen, sp.ID, "ENGRAFTMENT_SITE", sp.EngraftmentSite)
		g.addTerm(LabelSpecimen, sp.ID, "ENGRAFTMENT_TYPE", sp.EngraftmentType)
		g.addTerm(LabelSpecimen, sp.ID, "ENGRAFTMENT_MATERIAL", sp.EngraftmentMaterial)
		if sp.Sample != nil {
			g.addSample(sp.Sample)
			g.rel("HAS_SAMPLE", LabelSpecimen, sp.ID, LabelSample, sp.Sample.ID, nil)
		}
	}
	for i, tp := range m.Treatments {
		id := g.addTreatment(m.ID, i, tp)
		g.rel("DOSED_WITH", LabelModel, m.ID, LabelTreatmentProtocol, id, nil)
	}
}

// statements renders nodes first, then relationships, each in a stable order.
func (g *graph) statements() []neo4jdb.Statement {
	var out []neo4jdb.Statement
	for _, label := range Labels {
		byID := g.nodes[label]
		if len(byID) == 0 {
			continue
		}
		out = append(out, neo4jdb.Statement{
			Cypher: fmt.Sprintf("UNWIND $rows AS r MERGE (n:%s {id: r.id}) SET n += r", label),
			Params: map[string]any{"rows": sortedRows(byID)},
		})
	}
	keys := make([]relKey, 0, len(g.rels))
	for k := range g.rels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	for _, k := range keys {
		rows := make([]map[string]any, 0, len(g.rels[k]))
		pairs := make([][2]string, 0, len(g.rels[k]))
		for p := range g.rels[k] {
			pairs = append(pairs, p)
		}
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i][0] != pairs[j][0] {
				return pairs[i][0] < pairs[j][0]
			}
			return pairs[i][1] < pairs[j][1]
		})
		for _, p := range pairs {
			rows = append(rows, g.rels[k][p])
		}
		out = append(out, neo4jdb.Statement{
			Cypher: fmt.Sprintf(`UNWIND $rows AS r
MATCH (a:%s {id: r.from})
MATCH (b:%s {id: r.to})
MERGE (a)-[e:%s]->(b)
SET e += r.props`, k.From, k.To, k.Type),
			Params: map[string]any{"rows": rows},
		})
	}
	return out
}

func sortedRows(byID map[string]map[string]any) []map[string]any {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, byID[id])
	}
	return rows
}

// constraints returns one uniqueness constraint per label.
func constraints() []neo4jdb.Statement {
	out := make([]neo4jdb.Statement, 0, len(Labels))
	for _, label := range Labels {
		out = append(out, neo4jdb.Statement{
			Cypher: fmt.Sprintf("CREATE CONSTRAINT pdx_%s_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", label, label),
		})
	}
	return out
}
