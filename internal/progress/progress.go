// Package progress summarizes a player's stored block history.
package progress

import (
	"cmp"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/roach88/nback/internal/store"
)

// Summary describes a block history. The zero value describes no history.
type Summary struct {
	Blocks int `json:"blocks"`

	MeanAccuracy   float64 `json:"mean_accuracy"`
	MedianAccuracy float64 `json:"median_accuracy"`
	StdDevAccuracy float64 `json:"stddev_accuracy"`

	MeanHitRate              float64 `json:"mean_hit_rate"`
	MeanCorrectRejectionRate float64 `json:"mean_correct_rejection_rate"`

	BestLevel   int `json:"best_level"`   // highest n of any block
	LatestLevel int `json:"latest_level"` // n of the most recent block
	NextLevel   int `json:"next_level"`   // level earned by the most recent block

	// Trend is the mean accuracy of the newer half of the history minus
	// that of the older half. Zero with fewer than two blocks.
	Trend float64 `json:"trend"`

	Levels []LevelStats `json:"levels"`
}

// LevelStats aggregates the blocks played at one n.
type LevelStats struct {
	N            int     `json:"n"`
	Blocks       int     `json:"blocks"`
	MeanAccuracy float64 `json:"mean_accuracy"`
	BestAccuracy float64 `json:"best_accuracy"`
}

// Summarize computes a Summary. Sessions may be in any order.
func Summarize(sessions []store.Session) Summary {
	if len(sessions) == 0 {
		return Summary{Levels: []LevelStats{}}
	}

	ordered := slices.Clone(sessions)
	slices.SortStableFunc(ordered, func(a, b store.Session) int {
		if c := a.CompletedAt.Compare(b.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	accuracy := make(stats.Float64Data, len(ordered))
	hitRates := make(stats.Float64Data, len(ordered))
	crRates := make(stats.Float64Data, len(ordered))
	best := 0
	for i, s := range ordered {
		accuracy[i] = s.Accuracy
		hitRates[i] = s.HitRate
		crRates[i] = s.CorrectRejectionRate
		best = max(best, s.N)
	}

	latest := ordered[len(ordered)-1]
	sum := Summary{
		Blocks:                   len(ordered),
		MeanAccuracy:             mean(accuracy),
		MedianAccuracy:           median(accuracy),
		StdDevAccuracy:           stddev(accuracy),
		MeanHitRate:              mean(hitRates),
		MeanCorrectRejectionRate: mean(crRates),
		BestLevel:                best,
		LatestLevel:              latest.N,
		NextLevel:                latest.NextLevel,
		Levels:                   byLevel(ordered),
	}

	if len(accuracy) >= 2 {
		half := len(accuracy) / 2
		sum.Trend = mean(accuracy[half:]) - mean(accuracy[:half])
	}

	return sum
}

func byLevel(sessions []store.Session) []LevelStats {
	groups := make(map[int]stats.Float64Data)
	for _, s := range sessions {
		groups[s.N] = append(groups[s.N], s.Accuracy)
	}

	out := make([]LevelStats, 0, len(groups))
	for n, acc := range groups {
		best, _ := stats.Max(acc)
		out = append(out, LevelStats{
			N:            n,
			Blocks:       len(acc),
			MeanAccuracy: mean(acc),
			BestAccuracy: best,
		})
	}
	slices.SortFunc(out, func(a, b LevelStats) int { return cmp.Compare(a.N, b.N) })
	return out
}

// The stats helpers only fail on empty input, which callers rule out.

func mean(data stats.Float64Data) float64 {
	m, _ := stats.Mean(data)
	return m
}

func median(data stats.Float64Data) float64 {
	m, _ := stats.Median(data)
	return m
}

func stddev(data stats.Float64Data) float64 {
	sd, _ := stats.StandardDeviation(data)
	return sd
}
