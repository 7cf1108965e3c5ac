package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScoreClampsYoungMessages(t *testing.T) {
	// Below the clamp every age scores the same, so a just-posted
	// message cannot blow up the board.
	require.Equal(t, Score(4, time.Second), Score(4, time.Minute))
	require.Greater(t, Score(4, time.Minute), Score(4, 2*time.Minute))
}

func TestScoreDecay(t *testing.T) {
	// An hour-old message with many votes loses to a fresh one with few.
	require.Greater(t, Score(2, time.Minute), Score(20, time.Hour))
}

func TestStarsOrdersByDecayedScore(t *testing.T) {
	now := time.Unix(1700000000, 0)
	entries := []Entry{
		{ID: 1, Votes: 20, Timestamp: now.Add(-time.Hour)},
		{ID: 2, Votes: 2, Timestamp: now.Add(-time.Minute)},
		{ID: 3, Votes: 1, Timestamp: now.Add(-30 * time.Minute)},
	}

	got := Stars(entries, now)
	require.Equal(t, []int64{2, 1, 3}, ids(got))
	// Input order is preserved.
	require.Equal(t, []int64{1, 2, 3}, ids(entries))
}

func TestStarsTruncatesToBoardSize(t *testing.T) {
	now := time.Unix(1700000000, 0)
	var entries []Entry
	for i := 0; i < BoardSize+5; i++ {
		entries = append(entries, Entry{
			ID:        int64(i),
			Votes:     int64(i + 1),
			Timestamp: now.Add(-time.Hour),
		})
	}

	got := Stars(entries, now)
	require.Len(t, got, BoardSize)
	// Same age throughout, so the highest counts survive the cut.
	require.Equal(t, int64(BoardSize+4), got[0].ID)
}

func TestPinsOrdersByAscendingCount(t *testing.T) {
	entries := []Entry{
		{ID: 1, Votes: 3},
		{ID: 2, Votes: 1},
		{ID: 3, Votes: 2},
	}
	require.Equal(t, []int64{2, 3, 1}, ids(Pins(entries)))
}

func TestEmptyBoards(t *testing.T) {
	require.Empty(t, Stars(nil, time.Unix(1700000000, 0)))
	require.Empty(t, Pins(nil))
}

func ids(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
