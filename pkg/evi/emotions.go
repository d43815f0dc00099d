package evi

import (
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Scores maps an emotion label to its intensity, keeping the order the labels
// arrived in.
type Scores = orderedmap.OrderedMap[string, float64]

// NewScores builds Scores from label/score pairs in argument order.
func NewScores(pairs ...EmotionScore) *Scores {
	scores := orderedmap.New[string, float64]()
	for _, p := range pairs {
		scores.Set(p.Label, p.Score)
	}
	return scores
}

// EmotionScore is one entry of a Scores mapping.
type EmotionScore struct {
	Label string
	Score float64
}

// Entries returns the pairs of scores in iteration order. A nil mapping has
// no entries.
func Entries(scores *Scores) []EmotionScore {
	if scores == nil {
		return nil
	}
	entries := make([]EmotionScore, 0, scores.Len())
	for pair := scores.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, EmotionScore{Label: pair.Key, Score: pair.Value})
	}
	return entries
}

// TopN returns the n highest scoring emotions in descending order. Equal
// scores keep their original relative order; n <= 0 yields an empty mapping.
func TopN(scores *Scores, n int) *Scores {
	top := orderedmap.New[string, float64]()
	if n <= 0 {
		return top
	}

	entries := Entries(scores)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if n > len(entries) {
		n = len(entries)
	}
	for _, e := range entries[:n] {
		top.Set(e.Label, e.Score)
	}
	return top
}
