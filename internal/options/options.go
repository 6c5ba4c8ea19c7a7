// Package options builds the multiple-choice answers offered for a guess.
package options

import (
	"math/rand/v2"
	"slices"
)

const (
	// YearCount is how many years are offered, the correct one included.
	YearCount = 8
	// CategoricalCount caps the location choices, the correct one included.
	CategoricalCount = 5
	// MinYear is the earliest year ever offered.
	MinYear = 1900
)

// yearOffsets are tried in order before falling back to random offsets.
var yearOffsets = []int{-4, -3, -2, -1, 1, 2, 3, 4, -6, 6, -8, 8, -10, 10}

// Years returns YearCount distinct years in [MinYear, currentYear] that
// include correct, in random order. A correct year outside that range (a
// camera clock set in the future) widens the range to reach it, so it is
// never the lone outlier among the choices.
func Years(correct, currentYear int, rng *rand.Rand) []int {
	lo, hi := yearRange(correct, currentYear)
	years := []int{correct}
	add := func(y int) {
		if y < lo || y > hi || slices.Contains(years, y) {
			return
		}
		years = append(years, y)
	}

	for _, off := range yearOffsets {
		if len(years) >= YearCount {
			break
		}
		add(correct + off)
	}

	// Random offsets in [-7,7] cannot fill the set when fewer than
	// YearCount-1 other years are in range, so stop once nothing is left.
	for len(years) < YearCount && len(years) < reachable(correct, currentYear) {
		add(correct + rng.IntN(15) - 7)
	}

	Shuffle(years, rng)
	return years
}

func yearRange(correct, currentYear int) (lo, hi int) {
	return min(MinYear, correct), max(currentYear, correct)
}

// reachable counts the distinct years Years can ever produce for correct.
func reachable(correct, currentYear int) int {
	lo, hi := yearRange(correct, currentYear)
	lo, hi = max(lo, correct-10), min(hi, correct+10)
	n := 0
	for y := lo; y <= hi; y++ {
		if y == correct {
			continue
		}
		off := y - correct
		if (off >= -7 && off <= 7) || slices.Contains(yearOffsets, off) {
			n++
		}
	}
	return n + 1
}

// Categorical returns correct plus up to CategoricalCount-1 distinct
// distractors drawn from pool, in random order. Empty strings in pool are
// ignored. An empty correct value yields no choices.
func Categorical(correct string, pool []string, rng *rand.Rand) []string {
	if correct == "" {
		return nil
	}

	var distractors []string
	for _, v := range pool {
		if v != "" && v != correct {
			distractors = append(distractors, v)
		}
	}
	Shuffle(distractors, rng)

	out := []string{correct}
	for _, d := range distractors {
		if len(out) >= CategoricalCount {
			break
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}

	Shuffle(out, rng)
	return out
}

// Months returns 1 through 12.
func Months() []int {
	months := make([]int, 12)
	for i := range months {
		months[i] = i + 1
	}
	return months
}

// Days returns 1 through n.
func Days(n int) []int {
	days := make([]int, n)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

// Shuffle permutes s in place with a Fisher-Yates shuffle.
func Shuffle[T any](s []T, rng *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
