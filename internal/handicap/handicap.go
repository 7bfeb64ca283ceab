// Package handicap implements the society's handicap adjustment rules.
//
// A player's handicap moves after every finalized event based on their Stableford score:
//   - more than 20 points cuts the handicap, by a factor that depends on how good the player already is
//   - a score below the player's buffer raises the handicap by a flat 0.1
//   - anything in between (the buffer zone) leaves it unchanged
package handicap

import "math"

// TargetScore is the Stableford score above which a player's handicap is cut.
const TargetScore = 20

// Increase is the flat amount added when a player scores below their buffer.
const Increase = 0.1

// Category is one row of the handicap table.
type Category struct {
	MaxHandicap float64 // Inclusive upper bound; the last category has +Inf
	Buffer      int     // Lowest score that doesn't trigger an increase
	CutFactor   float64 // Handicap cut per point over TargetScore
}

// Categories is ordered by MaxHandicap; the first row that fits a handicap wins.
var Categories = []Category{
	{MaxHandicap: 3.0, Buffer: 19, CutFactor: 0.1},
	{MaxHandicap: 7.0, Buffer: 18, CutFactor: 0.2},
	{MaxHandicap: 10.0, Buffer: 17, CutFactor: 0.3},
	{MaxHandicap: math.Inf(1), Buffer: 16, CutFactor: 0.4},
}

// CategoryFor returns the category a handicap falls into.
func CategoryFor(current float64) Category {
	for _, c := range Categories {
		if current <= c.MaxHandicap {
			return c
		}
	}
	// Only reachable for NaN.
	return Categories[len(Categories)-1]
}

// Adjust returns the change to apply to current after a round of stablefordScore points.
// The rules are checked in order: cut, increase, buffer zone.
func Adjust(current float64, stablefordScore int) float64 {
	category := CategoryFor(current)

	if stablefordScore > TargetScore {
		pointsOver := stablefordScore - TargetScore
		return -(float64(pointsOver) * category.CutFactor)
	}

	if stablefordScore < category.Buffer {
		return Increase
	}

	return 0
}

// Apply returns the new handicap after a round, rounded to one decimal place.
func Apply(current float64, stablefordScore int) float64 {
	return Round(current + Adjust(current, stablefordScore))
}

// Round rounds to one decimal place, with halves rounded up (towards +Inf).
func Round(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
