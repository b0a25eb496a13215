package game

import (
	"fmt"
	"math"
	"sort"
	"time"

	"aulaquiz/internal/store"
)

// SortClassic orders a classic scoreboard: score descending, ties broken by
// elapsed time ascending. Players still in flight sort after any finisher
// with the same score. The sort is stable so equal players keep join order.
func SortClassic(entries []store.StudentRanking) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return elapsedMs(entries[i]) < elapsedMs(entries[j])
	})
}

// SortMastery orders a mastery scoreboard: everyone who cleared the queue
// ranks above everyone who has not, finishers by elapsed time ascending and
// the rest by progress descending.
func SortMastery(entries []store.StudentRanking, total int) {
	finished := func(r store.StudentRanking) bool {
		return total > 0 && r.ProgressCount >= total
	}
	sort.SliceStable(entries, func(i, j int) bool {
		fi, fj := finished(entries[i]), finished(entries[j])
		if fi != fj {
			return fi
		}
		if fi {
			return elapsedMs(entries[i]) < elapsedMs(entries[j])
		}
		return entries[i].ProgressCount > entries[j].ProgressCount
	})
}

func elapsedMs(r store.StudentRanking) float64 {
	d, ok := r.Elapsed()
	if !ok {
		return math.Inf(1)
	}
	return float64(d / time.Millisecond)
}

// Visual is the emoji and celebration line shown for a podium position.
type Visual struct {
	Emoji   string
	Message string
}

// rankVisuals covers the first forty positions; beyond that RankVisual falls
// back to a plain position label.
var rankVisuals = []Visual{
	{"🥇", "An exceptional performance! You are a star."},
	{"🥈", "Almost at the top! An incredible effort."},
	{"🥉", "You made the podium! Great work."},
	{"🚀", "Blasting off toward success! Keep it up."},
	{"🎯", "Right on target! Excellent precision."},
	{"💡", "A brilliant mind at work! Congratulations."},
	{"⭐", "You are a superstar! You shone bright."},
	{"🧠", "That brain is on fire! Impressive."},
	{"🏆", "A champion's attitude! A fantastic result."},
	{"🔥", "You are unstoppable! What great energy."},
	{"🦊", "Cunning and quick! Very well played."},
	{"🦉", "Wisdom in every answer! Excellent."},
	{"🦅", "An eagle eye for the details!"},
	{"🦁", "You roared! A great result."},
	{"💎", "A diamond in the rough! Huge potential."},
	{"🗺️", "Explorer of knowledge! Keep discovering."},
	{"🧭", "You found true north! You are on track."},
	{"🏰", "Builder of your own success! Congratulations."},
	{"🔑", "You hold the key to knowledge!"},
	{"📚", "Your dedication shows! Very good."},
	{"⚡", "Speed and precision! Like lightning."},
	{"🌱", "Your knowledge is blooming! Keep growing."},
	{"🌻", "You shine like the sun! A cheerful result."},
	{"🍀", "Luck favors the prepared, like you!"},
	{"🍄", "Growing by leaps and bounds! Excellent."},
	{"🐢", "Slow but steady! Consistency is your strength."},
	{"🐿️", "Mental agility! Very good answers."},
	{"🐘", "An elephant's memory! Nothing escapes you."},
	{"🦋", "Turning effort into success!"},
	{"🌠", "You are a shooting star! Fast and bright."},
	{"☀️", "You lit up the quiz with your answers!"},
	{"🪐", "Your knowledge is out of this galaxy!"},
	{"✨", "A touch of magic in every answer!"},
	{"🎉", "Time to celebrate this great result!"},
	{"🎊", "A festival of knowledge! Well done."},
	{"🎁", "Your intelligence is a gift! Keep it up."},
	{"🎨", "You painted a masterpiece with your answers!"},
	{"🎭", "You own the stage of knowledge! Excellent."},
	{"🎻", "Your answers sound like a symphony!"},
	{"🎲", "You took the chance and won! Very good."},
}

// RankVisual returns the visual for a zero-based podium index.
func RankVisual(index int) Visual {
	if index >= 0 && index < len(rankVisuals) {
		return rankVisuals[index]
	}
	return Visual{Emoji: fmt.Sprintf("P%d", index+1)}
}
