package domain

// FieldDiff is one tracked field of a version comparison. A and B always belong
// to the versions requested as A and B, regardless of which one is newer.
type FieldDiff struct {
	Changed bool `json:"changed"`
	A       any  `json:"version_a"`
	B       any  `json:"version_b"`
}

// Comparison is the structural diff between two versions of one recommendation.
type Comparison struct {
	VersionA    Version              `json:"version_a"`
	VersionB    Version              `json:"version_b"`
	Differences map[string]FieldDiff `json:"differences"`
}

// Tracked comparison fields.
const (
	FieldVersionNumber     = "version_number"
	FieldChangeType        = "change_type"
	FieldChangeDescription = "change_description"
	FieldConfidenceScore   = "confidence_score"
	FieldWordCount         = "word_count"
	FieldCreatedBy         = "created_by"
	FieldContent           = "content"
)
