package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aulaquiz/internal/store"
)

func finishedAt(start time.Time, elapsed time.Duration) (time.Time, *time.Time) {
	end := start.Add(elapsed)
	return start, &end
}

func TestSortClassic(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	aStart, aEnd := finishedAt(base, 90*time.Second)
	bStart, bEnd := finishedAt(base, 60*time.Second)

	entries := []store.StudentRanking{
		{StudentID: "a", Score: 3000, StartTime: aStart, EndTime: aEnd},
		{StudentID: "b", Score: 3000, StartTime: bStart, EndTime: bEnd},
		{StudentID: "c", Score: 5000, StartTime: base},
	}

	SortClassic(entries)

	ids := []string{entries[0].StudentID, entries[1].StudentID, entries[2].StudentID}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
}

func TestSortClassicUnfinishedAfterFinisher(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	aStart, aEnd := finishedAt(base, 5*time.Minute)

	entries := []store.StudentRanking{
		{StudentID: "running", Score: 2000, StartTime: base},
		{StudentID: "done", Score: 2000, StartTime: aStart, EndTime: aEnd},
	}

	SortClassic(entries)

	assert.Equal(t, "done", entries[0].StudentID)
	assert.Equal(t, "running", entries[1].StudentID)
}

func TestSortMastery(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	total := 10

	aStart, aEnd := finishedAt(base, 4*time.Minute)
	cStart, cEnd := finishedAt(base, 3*time.Minute)

	entries := []store.StudentRanking{
		{StudentID: "a", ProgressCount: 10, StartTime: aStart, EndTime: aEnd},
		{StudentID: "b", ProgressCount: 7, StartTime: base},
		{StudentID: "c", ProgressCount: 10, StartTime: cStart, EndTime: cEnd},
		{StudentID: "d", ProgressCount: 2, StartTime: base},
	}

	SortMastery(entries, total)

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.StudentID
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids)
}

func TestSortMasteryIsStableForTies(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	entries := []store.StudentRanking{
		{StudentID: "first", ProgressCount: 4, StartTime: base},
		{StudentID: "second", ProgressCount: 4, StartTime: base},
	}

	SortMastery(entries, 10)

	assert.Equal(t, "first", entries[0].StudentID)
	assert.Equal(t, "second", entries[1].StudentID)
}

func TestRankVisual(t *testing.T) {
	assert.Equal(t, "🥇", RankVisual(0).Emoji)
	assert.Equal(t, "🥈", RankVisual(1).Emoji)
	assert.Equal(t, "🥉", RankVisual(2).Emoji)
	assert.NotEmpty(t, RankVisual(39).Message)

	// Past the table the label is positional.
	v := RankVisual(40)
	assert.Equal(t, "P41", v.Emoji)
	assert.Empty(t, v.Message)
}
