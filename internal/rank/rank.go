// Package rank computes starboard orderings from aggregated vote rows.
package rank

import (
	"math"
	"sort"
	"time"
)

// BoardSize is the maximum number of entries on the star board.
const BoardSize = 10

// minAge clamps message age so scores stay finite for brand-new
// messages.
const minAge = time.Minute

// Entry is one message on a board, with its aggregate vote count.
type Entry struct {
	ID        int64
	Text      string
	Timestamp time.Time
	UserID    int64
	Username  string
	Votes     int64
}

// Score is the decayed star-board score: votes * ageMinutes^-1.5, with
// age clamped to at least one minute. Fresh, highly-voted messages
// rank highest.
func Score(votes int64, age time.Duration) float64 {
	if age < minAge {
		age = minAge
	}
	return float64(votes) * math.Pow(age.Minutes(), -1.5)
}

// Stars orders entries by descending decayed score as of now and
// returns at most BoardSize of them.
func Stars(entries []Entry, now time.Time) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return Score(out[i].Votes, now.Sub(out[i].Timestamp)) >
			Score(out[j].Votes, now.Sub(out[j].Timestamp))
	})
	if len(out) > BoardSize {
		out = out[:BoardSize]
	}
	return out
}

// Pins orders entries by ascending raw vote count. The ascending order
// is a deliberate protocol choice; see DESIGN.md before changing it.
func Pins(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Votes < out[j].Votes
	})
	return out
}
