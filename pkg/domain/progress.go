package domain

// ViewedSet holds the lecture ids that have a viewed record. Entries are
// never removed.
type ViewedSet map[string]struct{}

// NewViewedSet builds a set from progress tuples, keeping only viewed ones.
func NewViewedSet(records []LectureProgress) ViewedSet {
	set := make(ViewedSet, len(records))
	for _, r := range records {
		if r.Viewed && r.LectureID != "" {
			set[r.LectureID] = struct{}{}
		}
	}
	return set
}

// Has reports whether lectureID has been viewed.
func (s ViewedSet) Has(lectureID string) bool {
	_, ok := s[lectureID]
	return ok
}

// Add records a view and reports whether the set changed.
func (s ViewedSet) Add(lectureID string) bool {
	if lectureID == "" || s.Has(lectureID) {
		return false
	}
	s[lectureID] = struct{}{}
	return true
}

// AllViewed reports whether the course has lectures and every one of them
// has a viewed record.
func AllViewed(lectures []Lecture, viewed ViewedSet) bool {
	if len(lectures) == 0 {
		return false
	}
	for _, l := range lectures {
		if !viewed.Has(l.ID) {
			return false
		}
	}
	return true
}

// ViewedCount returns how many lectures of the list are viewed.
func ViewedCount(lectures []Lecture, viewed ViewedSet) int {
	n := 0
	for _, l := range lectures {
		if viewed.Has(l.ID) {
			n++
		}
	}
	return n
}
