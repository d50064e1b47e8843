package transcript

import "strings"

// DedupePolicy selects how duplicate course records are detected.
type DedupePolicy int

const (
	// DedupeExact treats two records as duplicates only when title,
	// grade, and score all match. A course retaken with a different
	// outcome is kept. This is the canonical policy.
	DedupeExact DedupePolicy = iota
	// DedupeTitleOnly collapses records on the title alone, keeping the
	// first outcome seen. Matches an older revision of the cleanup rule.
	DedupeTitleOnly
)

type dedupeKey struct {
	title, grade, score string
}

// Resolve removes exact duplicates from one semester's records: the
// first occurrence of each (title, grade, score) triple survives, later
// occurrences are dropped, and surviving records keep their original
// relative order. Titles are compared case-insensitively.
func Resolve(records []CourseRecord) []CourseRecord {
	return resolve(records, DedupeExact)
}

func resolve(records []CourseRecord, policy DedupePolicy) []CourseRecord {
	if len(records) == 0 {
		return records
	}

	seen := make(map[dedupeKey]struct{}, len(records))
	out := records[:0:0]
	for _, rec := range records {
		key := dedupeKey{title: strings.ToLower(rec.Title)}
		if policy == DedupeExact {
			key.grade = rec.Grade
			key.score = rec.Score
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
