package versions

import (
	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
)

// Diff compares two versions field by field under strict equality. Values are
// attributed to a and b as passed, so Diff(a, b) and Diff(b, a) report the same
// Changed flags with A and B swapped.
func Diff(a, b domain.Version) map[string]domain.FieldDiff {
	out := make(map[string]domain.FieldDiff, 7)
	put := func(field string, va, vb any, changed bool) {
		out[field] = domain.FieldDiff{Changed: changed, A: va, B: vb}
	}
	put(domain.FieldVersionNumber, a.VersionNumber, b.VersionNumber, a.VersionNumber != b.VersionNumber)
	put(domain.FieldChangeType, a.ChangeType, b.ChangeType, a.ChangeType != b.ChangeType)
	put(domain.FieldChangeDescription, a.ChangeDescription, b.ChangeDescription, a.ChangeDescription != b.ChangeDescription)
	put(domain.FieldConfidenceScore, a.ConfidenceScore, b.ConfidenceScore, a.ConfidenceScore != b.ConfidenceScore)
	put(domain.FieldWordCount, a.WordCount, b.WordCount, a.WordCount != b.WordCount)

	ca, cb := actor(a.CreatedBy), actor(b.CreatedBy)
	put(domain.FieldCreatedBy, ca, cb, ca != cb)

	put(domain.FieldContent, a.Content, b.Content, a.Content != b.Content)
	return out
}

// Compare builds the full comparison for a requested pair.
func Compare(a, b domain.Version) domain.Comparison {
	return domain.Comparison{VersionA: a, VersionB: b, Differences: Diff(a, b)}
}

func actor(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
