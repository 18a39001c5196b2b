// internal/stats/stats.go
package stats

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoReplicates is returned when Aggregate receives nothing to aggregate.
	ErrNoReplicates = errors.New("no replicates to aggregate")
	// ErrGroupMismatch is returned when replicates disagree on their groups.
	ErrGroupMismatch = errors.New("replicates report different groups")
	// ErrInvalidRounds is returned when the per-round divisor is not positive.
	ErrInvalidRounds = errors.New("rounds must be positive")
)

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std returns the population standard deviation of xs, or 0 for an empty slice.
func Std(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Summary is the mean and population standard deviation of a sample.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Summarize computes the Summary of xs.
func Summarize(xs []float64) Summary {
	return Summary{Mean: Mean(xs), Std: Std(xs)}
}

// SummarizeInts computes the Summary of integer samples such as total scores.
func SummarizeInts(xs []int) Summary {
	fs := make([]float64, len(xs))
	for i, x := range xs {
		fs[i] = float64(x)
	}
	return Summarize(fs)
}

// Group is the Summary of one labelled group of agents.
type Group struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Summary
}

// Aggregate averages per-group summaries over replicates and divides the
// result by rounds, turning total scores into per-round scores. Every
// replicate must list the same labels in the same order.
func Aggregate(replicates [][]Group, rounds int) ([]Group, error) {
	if len(replicates) == 0 {
		return nil, ErrNoReplicates
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRounds, rounds)
	}
	first := replicates[0]
	out := make([]Group, len(first))
	for i, g := range first {
		out[i] = Group{Label: g.Label, Count: g.Count}
	}
	for r, rep := range replicates {
		if len(rep) != len(first) {
			return nil, fmt.Errorf("%w: replicate %d has %d groups, want %d", ErrGroupMismatch, r, len(rep), len(first))
		}
		for i, g := range rep {
			if g.Label != first[i].Label {
				return nil, fmt.Errorf("%w: replicate %d group %d is %q, want %q", ErrGroupMismatch, r, i, g.Label, first[i].Label)
			}
			out[i].Mean += g.Mean
			out[i].Std += g.Std
		}
	}
	div := float64(len(replicates)) * float64(rounds)
	for i := range out {
		out[i].Mean /= div
		out[i].Std /= div
	}
	return out, nil
}
