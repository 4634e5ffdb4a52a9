package relation

// Kind identifies one of the seven cross-reference link types used in
// Algerian legal drafting. The values are the gazette's own French terms
// and serialize as-is.
type Kind string

const (
	// KindVu is a preamble citation ("vu la loi n° ...").
	KindVu Kind = "vu"
	// KindModification is a legislative amendment.
	KindModification Kind = "modification"
	// KindAbrogation is a full or partial repeal.
	KindAbrogation Kind = "abrogation"
	// KindApprobation is an approval or endorsement.
	KindApprobation Kind = "approbation"
	// KindControle is a conformity or constitutionality review.
	KindControle Kind = "controle"
	// KindExtension extends a text's scope of application.
	KindExtension Kind = "extension"
	// KindAnnexe attaches an annex or complementary list.
	KindAnnexe Kind = "annexe"
)

// Kinds returns all relationship kinds in catalog enumeration order.
func Kinds() []Kind {
	return []Kind{
		KindVu, KindModification, KindAbrogation, KindApprobation,
		KindControle, KindExtension, KindAnnexe,
	}
}

// DocumentDate holds the bilingual dating standard in the official gazette:
// instruments are dated in both the Hijri and Gregorian calendars.
type DocumentDate struct {
	Gregorian string `json:"gregorian,omitempty"`
	Hijri     string `json:"hijri,omitempty"`
}

// DocumentRef identifies a legal instrument (loi, décret, arrêté, ...).
// Two refs denote the same document iff Type and Number are equal; that
// identity is what DocumentKey encodes.
type DocumentRef struct {
	Type             string        `json:"type"`
	Number           string        `json:"number"`
	Date             *DocumentDate `json:"date,omitempty"`
	Title            string        `json:"title,omitempty"`
	IssuingAuthority string        `json:"issuing_authority,omitempty"`
}

// DocumentKey returns the type_number identity key for a document. It is
// used consistently for graph map insertion and cluster membership.
func DocumentKey(ref DocumentRef) string {
	return ref.Type + "_" + ref.Number
}

// TextPosition locates a detected relationship within the analyzed text.
// Page is filled only when the caller knows the page layout of the text.
type TextPosition struct {
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
	Page       int `json:"page,omitempty"`
}

// ConformityLevel classifies a conformity-control relationship by the rank
// of the norm being checked against.
type ConformityLevel string

const (
	ConformityConstitutional ConformityLevel = "constitutional"
	ConformityLegal          ConformityLevel = "legal"
	ConformityRegulatory     ConformityLevel = "regulatory"
)

// Details carries kind-specific extra fields. Only the fields relevant to
// the relationship's kind are populated.
type Details struct {
	ArticlesAffected  []string        `json:"articles_affected,omitempty"`
	PartialAbrogation *bool           `json:"partial_abrogation,omitempty"`
	ExtensionDomain   string          `json:"extension_domain,omitempty"`
	ConformityLevel   ConformityLevel `json:"conformity_level,omitempty"`
}

// Relationship is one detected cross-reference between two legal documents.
type Relationship struct {
	Kind        Kind         `json:"type"`
	Source      DocumentRef  `json:"source_document"`
	Target      DocumentRef  `json:"target_document"`
	Description string       `json:"description"`
	Confidence  float64      `json:"confidence"`
	Position    TextPosition `json:"text_position"`
	Details     *Details     `json:"details,omitempty"`
}

// ClusterType classifies a document cluster.
type ClusterType string

const (
	ClusterThematic      ClusterType = "thematic"
	ClusterChronological ClusterType = "chronological"
	// ClusterHierarchical is declared for forward compatibility; no current
	// code path produces it.
	ClusterHierarchical ClusterType = "hierarchical"
)

// Cluster groups related documents within a graph. Documents holds keys
// into the graph's document table, not owned copies.
type Cluster struct {
	ID          string      `json:"id"`
	Documents   []string    `json:"documents"`
	Type        ClusterType `json:"type"`
	Description string      `json:"description"`
}

// Graph is the aggregated view of all relationships found in a text:
// the deduplicated document table, the flat relationship list ordered by
// text position, and the detected clusters. All fields are plain values
// and serialize to JSON without special handling.
type Graph struct {
	Documents     map[string]DocumentRef `json:"documents"`
	Relationships []Relationship         `json:"relationships"`
	Clusters      []Cluster              `json:"clusters"`
}

// defaultSource is the sentinel used when the analyzed document is not
// itself identified.
func defaultSource() DocumentRef {
	return DocumentRef{Type: "unknown", Number: "current"}
}

func boolPtr(b bool) *bool { return &b }
