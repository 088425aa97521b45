package domain

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

type WallStats struct {
	Total         int     `json:"total"`
	Rated         int     `json:"rated"`
	AverageRating float64 `json:"average_rating"`
}

func ComputeWallStats(items []Evidence) WallStats {
	stats := WallStats{Total: len(items)}
	var sum float64
	for _, e := range items {
		if e.Rating != nil && *e.Rating > 0 {
			sum += *e.Rating
			stats.Rated++
		}
	}
	if stats.Rated > 0 {
		stats.AverageRating = math.Round(sum/float64(stats.Rated)*10) / 10
	}
	return stats
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and for that this with have from they been were will would could
		should their there what when where which while about after before other some than then them these
		those very just also into only over such more most much many your yours ours really even
		because being both each does doing done down few here itself like make made need needs well
		using used uses`) {
		stopWords[w] = struct{}{}
	}
}

// TopWords counts the words of titles, bodies, and "love" answers for the
// showcase word cloud. Ties are ordered alphabetically.
func TopWords(items []Evidence, limit int) []WordCount {
	counts := map[string]int{}
	for _, e := range items {
		text := strings.ToLower(e.Title + " " + e.Content + " " + e.ReviewData.Data().Love)
		words := strings.FieldsFunc(text, func(r rune) bool {
			return r > unicode.MaxASCII || !unicode.IsLetter(r)
		})
		for _, w := range words {
			if len(w) <= 3 {
				continue
			}
			if _, stop := stopWords[w]; stop {
				continue
			}
			counts[w]++
		}
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
