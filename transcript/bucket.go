package transcript

// BucketSet groups course records by semester, remembering the order in
// which semesters first received a record. Rebuilt tables emit their
// semester groups in that order.
type BucketSet struct {
	records map[Semester][]CourseRecord
	order   []Semester
}

// NewBucketSet returns an empty bucket set.
func NewBucketSet() *BucketSet {
	return &BucketSet{records: make(map[Semester][]CourseRecord)}
}

// Add files a record under its semester.
func (b *BucketSet) Add(rec CourseRecord) {
	if _, ok := b.records[rec.Semester]; !ok {
		b.order = append(b.order, rec.Semester)
	}
	b.records[rec.Semester] = append(b.records[rec.Semester], rec)
}

// Semesters returns the semesters holding at least one record, in the
// order each first received one.
func (b *BucketSet) Semesters() []Semester {
	out := make([]Semester, 0, len(b.order))
	for _, s := range b.order {
		if len(b.records[s]) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Records returns the semester's records in insertion order.
func (b *BucketSet) Records(s Semester) []CourseRecord {
	return b.records[s]
}

// Len returns the total record count across all semesters.
func (b *BucketSet) Len() int {
	n := 0
	for _, recs := range b.records {
		n += len(recs)
	}
	return n
}

// resolveAll dedupes every bucket in place and returns how many records
// were dropped as duplicates.
func (b *BucketSet) resolveAll(policy DedupePolicy) int {
	dropped := 0
	for s, recs := range b.records {
		kept := resolve(recs, policy)
		dropped += len(recs) - len(kept)
		b.records[s] = kept
	}
	return dropped
}
