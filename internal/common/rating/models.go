// internal/common/rating/models.go
package rating

import (
	"math"
	"sort"
)

const (
	HeaderPlace = "地點"
	HeaderScore = "評分"

	// Glyph is the unit of a rating; a score is the number of glyphs.
	Glyph = "💩"

	MinScore = 1
	MaxScore = 5
)

// Record is one submitted rating row.
type Record struct {
	Place string
	Score float64
}

// Average is the mean score of a place over all of its records.
type Average struct {
	Place string  `json:"place"`
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

func RoundScore(score float64) float64 {
	return math.Round(score*10) / 10
}

// ComputeAverages groups records by place. The result is ordered by score
// descending, then by place.
func ComputeAverages(records []Record) []Average {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range records {
		totals[r.Place] += r.Score
		counts[r.Place]++
	}

	out := make([]Average, 0, len(counts))
	for place, count := range counts {
		out = append(out, Average{Place: place, Score: totals[place] / float64(count), Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Place < out[j].Place
	})
	return out
}
