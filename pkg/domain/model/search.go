package model

// SearchHit is a scored reference to one evidence chunk. Lower score means
// more relevant.
type SearchHit struct {
	ChunkID       string   `json:"chunk_id"`
	GuidelineID   string   `json:"guideline_id"`
	GuidelineName string   `json:"guideline_name"`
	SectionID     string   `json:"section_id"`
	SectionTitle  string   `json:"section_title"`
	ChunkText     string   `json:"chunk_text"`
	Tags          []string `json:"tags"`
	EvidenceLevel *string  `json:"evidence_level"`
	SourceAnchor  *string  `json:"source_anchor"`
	Score         float64  `json:"score"`
}

// FullTextQuery asks the store for ranked full-text matches
type FullTextQuery struct {
	Terms        []string // prefix terms, matched disjunctively
	GuidelineIDs []string
	SectionIDs   []string
	Limit        int
}

// SubstringQuery asks the store for chunks containing Pattern. Chunks that
// contain Marker get MarkerScore, the rest DefaultScore.
type SubstringQuery struct {
	Pattern      string // lowercased
	Marker       string // lowercased
	MarkerScore  float64
	DefaultScore float64
	GuidelineIDs []string
	SectionIDs   []string
	Limit        int
}
