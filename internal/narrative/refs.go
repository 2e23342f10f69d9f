package narrative

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcallison/chartline/internal/note"
)

const snippetLength = 120

// Reference links one narrative clause back to the entry or entries that
// support it.
type Reference struct {
	ID      string
	Matched string
	Date    *time.Time
	Snippet string
	Multi   bool
	Entries []note.Entry
}

// Tracker is the per-generation reference registry. Each Generate call
// uses a fresh tracker, so stale ids from an earlier narrative can never
// resolve against the wrong entries. A tracker must not be shared between
// two in-flight generations; concurrent callers each use their own.
type Tracker struct {
	refs  map[string]*Reference
	order []string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{refs: make(map[string]*Reference)}
}

// Reset clears all registered references.
func (t *Tracker) Reset() {
	t.refs = make(map[string]*Reference)
	t.order = nil
}

// Register allocates an id for a clause backed by the given entries and
// stores the reference. Multi-entry clauses keep every contributing entry;
// the snippet and date come from the first.
func (t *Tracker) Register(matched string, entries []note.Entry) string {
	ref := &Reference{
		ID:      uuid.NewString(),
		Matched: matched,
		Multi:   len(entries) > 1,
		Entries: entries,
	}
	if len(entries) > 0 {
		ref.Date = entries[0].Date
		ref.Snippet = snippet(entries[0].Content)
	}
	t.refs[ref.ID] = ref
	t.order = append(t.order, ref.ID)
	return ref.ID
}

// Lookup resolves a reference id. The second return value is false for
// unknown or stale ids; callers treat that as "no source available".
func (t *Tracker) Lookup(id string) (*Reference, bool) {
	ref, ok := t.refs[id]
	return ref, ok
}

// References returns all references in registration order.
func (t *Tracker) References() []*Reference {
	out := make([]*Reference, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.refs[id])
	}
	return out
}

// Len returns the number of registered references.
func (t *Tracker) Len() int {
	return len(t.order)
}

func snippet(content string) string {
	if len(content) <= snippetLength {
		return content
	}
	return content[:snippetLength] + "..."
}
