package domain

import (
	"encoding/json"
	"strings"
)

// CharacterizationType enumerates molecular assay families.
type CharacterizationType string

const (
	CharacterizationMutation     CharacterizationType = "mutation"
	CharacterizationCopyNumber   CharacterizationType = "copy number alteration"
	CharacterizationCytogenetics CharacterizationType = "cytogenetics"
)

// ParseCharacterizationType normalizes the spellings found in source tables;
// ok reports whether raw names one of the measured families.
func ParseCharacterizationType(raw string) (CharacterizationType, bool) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "mutation", "mut":
		return CharacterizationMutation, true
	case "copy number alteration", "copynumberalteration", "cna":
		return CharacterizationCopyNumber, true
	case "cytogenetics":
		return CharacterizationCytogenetics, true
	default:
		return CharacterizationType(norm), false
	}
}

// CharacterizationTypeOf returns the known type for raw, or the normalized
// spelling for assay families without a measurement table (expression,
// proteomics). Blank input yields "".
func CharacterizationTypeOf(raw string) CharacterizationType {
	kind, _ := ParseCharacterizationType(raw)
	return kind
}

// MolecularCharacterization groups the measurements of one sample taken with
// one assay on one platform. It always holds exactly one association.
type MolecularCharacterization struct {
	ID           string               `json:"id"`
	Type         CharacterizationType `json:"type"`
	Platform     *Platform            `json:"platform"`
	Associations []*MarkerAssociation `json:"marker_associations"`
}

// Association returns the single marker association, creating it if the
// characterization was built without one.
func (mc *MolecularCharacterization) Association() *MarkerAssociation {
	if len(mc.Associations) == 0 || mc.Associations[0] == nil {
		mc.Associations = []*MarkerAssociation{{}}
	}
	return mc.Associations[0]
}

// MarkerAssociation accumulates the measurements of a characterization.
// Data is the working list; Encoded is what gets persisted.
type MarkerAssociation struct {
	Data    []MolecularData `json:"-"`
	Encoded string          `json:"molecular_data"`
}

// Add appends one measurement.
func (ma *MarkerAssociation) Add(md MolecularData) {
	ma.Data = append(ma.Data, md)
}

// Canonicalize serializes Data into Encoded and returns it. Data is left in
// place, so repeated calls produce the same string.
func (ma *MarkerAssociation) Canonicalize() (string, error) {
	data := ma.Data
	if data == nil {
		data = []MolecularData{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	ma.Encoded = string(b)
	return ma.Encoded, nil
}

// Markers lists the distinct marker symbols of the association in first-seen order.
func (ma *MarkerAssociation) Markers() []string {
	seen := make(map[string]struct{}, len(ma.Data))
	out := make([]string, 0, len(ma.Data))
	for _, md := range ma.Data {
		if _, ok := seen[md.Marker]; ok {
			continue
		}
		seen[md.Marker] = struct{}{}
		out = append(out, md.Marker)
	}
	return out
}

// MolecularData is one resolved measurement row. Only the fields of the
// characterization type are populated.
type MolecularData struct {
	Marker string `json:"marker"`

	// shared positional fields
	Chromosome       string `json:"chromosome,omitempty"`
	SeqStartPosition string `json:"seq_start_position,omitempty"`
	SeqEndPosition   string `json:"seq_end_position,omitempty"`
	GenomeAssembly   string `json:"genome_assembly,omitempty"`

	// mutation
	AminoAcidChange     string `json:"amino_acid_change,omitempty"`
	CodingSequence      string `json:"coding_sequence_change,omitempty"`
	VariantClass        string `json:"variant_class,omitempty"`
	Consequence         string `json:"consequence,omitempty"`
	FunctionalPredict   string `json:"functional_prediction,omitempty"`
	AlleleFrequency     string `json:"allele_frequency,omitempty"`
	ReadDepth           string `json:"read_depth,omitempty"`
	RefAllele           string `json:"ref_allele,omitempty"`
	AltAllele           string `json:"alt_allele,omitempty"`
	RsIDVariants        string `json:"rs_id_variants,omitempty"`
	EnsemblTranscriptID string `json:"ensembl_transcript_id,omitempty"`

	// copy number alteration
	Log10RCNA        string `json:"cna_log10r_cna,omitempty"`
	Log2RCNA         string `json:"cna_log2r_cna,omitempty"`
	CopyNumberStatus string `json:"cna_copy_number_status,omitempty"`
	GisticValue      string `json:"cna_gistic_value,omitempty"`
	PicnicValue      string `json:"cna_picnic_value,omitempty"`

	// cytogenetics
	Result string `json:"cytogenetics_result,omitempty"`
}

// Marker is a canonical gene identity returned by a MarkerResolver.
type Marker struct {
	Symbol     string   `json:"hgnc_symbol"`
	HGNCID     string   `json:"hgnc_id,omitempty"`
	EntrezID   string   `json:"entrez_id,omitempty"`
	EnsemblID  string   `json:"ensembl_id,omitempty"`
	PrevSymbol []string `json:"prev_symbols,omitempty"`
	Synonyms   []string `json:"synonyms,omitempty"`
}
