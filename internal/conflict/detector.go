// internal/conflict/detector.go
package conflict

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Commitment is one already-committed interval of a user's schedule:
// a signed-up audition slot, a callback, a rehearsal, an agenda item.
type Commitment struct {
	Category string    `json:"category"`
	LocalID  string    `json:"local_id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// FirstConflict returns the first commitment overlapping the candidate
// interval, or nil. The detector only reports existence; it never ranks
// or resolves.
func FirstConflict(candStart, candEnd time.Time, existing []Commitment) *Commitment {
	for i := range existing {
		if Overlaps(candStart, candEnd, existing[i].Start, existing[i].End) {
			return &existing[i]
		}
	}
	return nil
}

// AllConflicts returns every commitment overlapping the candidate interval.
func AllConflicts(candStart, candEnd time.Time, existing []Commitment) []Commitment {
	var hits []Commitment
	for _, c := range existing {
		if Overlaps(candStart, candEnd, c.Start, c.End) {
			hits = append(hits, c)
		}
	}
	return hits
}

// Window is a candidate interval with an identity, used by the batch
// day-view report.
type Window struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UserConflicts lists one user's commitments that collide with a window.
type UserConflicts struct {
	UserID    uuid.UUID    `json:"user_id"`
	Username  string       `json:"username,omitempty"`
	Conflicts []Commitment `json:"conflicts"`
}

// GroupConflicts applies the pairwise overlap test across many windows and
// many users' commitments in one pass, grouping the results per window.
// Windows with no conflicts are absent from the result; each window's user
// list is sorted by user id so the report is stable across calls.
func GroupConflicts(windows []Window, commitments map[uuid.UUID][]Commitment) map[uuid.UUID][]UserConflicts {
	userIDs := make([]uuid.UUID, 0, len(commitments))
	for userID := range commitments {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool {
		return bytes.Compare(userIDs[i][:], userIDs[j][:]) < 0
	})

	out := make(map[uuid.UUID][]UserConflicts)
	for _, w := range windows {
		for _, userID := range userIDs {
			hits := AllConflicts(w.Start, w.End, commitments[userID])
			if len(hits) == 0 {
				continue
			}
			out[w.ID] = append(out[w.ID], UserConflicts{UserID: userID, Conflicts: hits})
		}
	}
	return out
}
