package note

import "time"

// DatePrecision records how much of an entry's date could be trusted
// from the raw import value.
type DatePrecision int

const (
	PrecisionNone DatePrecision = iota
	PrecisionMonth
	PrecisionDay
)

// Entry is one normalized clinical note record. Entries are immutable once
// created by Normalize; the deduplicator builds new representatives rather
// than editing members of a group.
type Entry struct {
	Date       *time.Time
	Precision  DatePrecision
	Content    string
	Type       string
	Originator string
	Sources    []string
}

// HasDate reports whether the entry carries a parseable date and can
// participate in timeline placement and period filters.
func (e Entry) HasDate() bool {
	return e.Date != nil
}

// Driver is a keyword that contributed to an entry's relevance score.
type Driver struct {
	Term     string
	Category string
	Weight   int
}

// ScoredEntry pairs an entry with its relevance score and the drivers
// that produced it, in first-encounter order.
type ScoredEntry struct {
	Entry   Entry
	Score   int
	Drivers []Driver
}

// EpisodeType classifies the care setting of an episode.
type EpisodeType string

const (
	EpisodeInpatient EpisodeType = "inpatient"
	EpisodeCommunity EpisodeType = "community"
	EpisodeUnknown   EpisodeType = "unknown"
)

// Episode is a contiguous period in one care setting. Episodes produced by
// the timeline builder are non-overlapping and ordered by Start.
type Episode struct {
	Type  EpisodeType
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the episode's range, inclusive.
func (ep Episode) Contains(t time.Time) bool {
	return !t.Before(ep.Start) && !t.After(ep.End)
}
